package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sakif/codemaster/internal/apperror"
)

// maxBodyBytes bounds request bodies; snippets are capped well below it.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response:
//
//	{"error": "not_found", "message": "snippet not found with id 42"}
//
// Error is one of validation_error, not_found, forbidden, conflict,
// auth_expired, invalid_credentials or internal_error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var validate = newValidator()

// newValidator reports fields by their JSON names so messages match what
// the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and error kind.
// Errors that are not *apperror.AppError become a generic 500 so internal
// details never reach the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	kind := "internal_error"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, kind = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrForbidden):
		status, kind = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrConflict):
		status, kind = http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrUnauthorized):
		status, kind = http.StatusUnauthorized, "auth_expired"
	case errors.Is(err, apperror.ErrCredentials):
		status, kind = http.StatusUnauthorized, "invalid_credentials"
	}

	writeJSON(w, status, ErrorResponse{Error: kind, Message: appErr.Message})
}

// decodeJSON reads a JSON body into dst and runs its validate tags.
// Failures come back as apperror validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("body", "Request body too large")
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "Request body is required")
		default:
			return apperror.ValidationFailed("body", "Invalid JSON body")
		}
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperror.ValidationFailed(verrs[0].Field(), validationMessage(verrs[0]))
		}
		return apperror.ValidationFailed("body", "Invalid request")
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return field + " is invalid"
}

// pathInt64 parses a positive integer URL parameter.
func pathInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("Invalid %s %q", name, raw))
	}
	return n, nil
}

// queryInt parses a required positive integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("Query parameter %s must be a positive integer", name))
	}
	return n, nil
}

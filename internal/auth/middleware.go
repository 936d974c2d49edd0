package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/codemaster/internal/apperror"
	"github.com/sakif/codemaster/internal/model"
)

type contextKey string

const userKey contextKey = "user"

// UserLookup resolves the subject of a token to an account.
// repository.UserRepository satisfies it.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth rejects requests without a valid bearer token.
//
// Every rejection is a 401 with the error kind "auth_expired", which clients
// treat as "drop the session and log in again". A token whose user no longer
// exists gets the message "User not found".
func RequireAuth(tokens *TokenService, users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeAuthExpired(w, "Authentication required")
				return
			}

			userID, err := tokens.Validate(raw)
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, ErrTokenExpired) {
					msg = "Token expired"
				}
				writeAuthExpired(w, msg)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, apperror.ErrNotFound) {
					logger.Error("loading token subject",
						slog.String("user_id", userID),
						slog.String("error", err.Error()),
					)
				}
				writeAuthExpired(w, "User not found")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the account attached by RequireAuth.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// WithUser attaches u to ctx. Handler tests use it to skip the middleware.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}

func writeAuthExpired(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "auth_expired",
		"message": message,
	})
}

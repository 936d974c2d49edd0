package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/codemaster/internal/apperror"
	"github.com/sakif/codemaster/internal/auth"
	"github.com/sakif/codemaster/internal/model"
	"github.com/sakif/codemaster/internal/service"
)

// SnippetHandler serves the /api/v1/snippets and /api/v1/versions routes.
// All of them sit behind auth.RequireAuth.
type SnippetHandler struct {
	svc    *service.SnippetService
	logger *slog.Logger
}

func NewSnippetHandler(svc *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{svc: svc, logger: logger}
}

type snippetRequest struct {
	Title       string `json:"title"       validate:"max=100"`
	Description string `json:"description" validate:"max=1000"`
	Content     string `json:"content"     validate:"required"`
	Language    string `json:"language"    validate:"max=32"`
}

func (req snippetRequest) input() service.SnippetInput {
	return service.SnippetInput{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Language:    req.Language,
	}
}

type validateRequest struct {
	Content string `json:"content"`
}

type rollbackRequest struct {
	VersionNumber int `json:"versionNumber" validate:"required,min=1"`
}

// currentUser returns the account attached by the auth middleware. Its
// absence means a route was mounted outside the middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Authentication required"))
	}
	return u, ok
}

// HandleList serves GET /snippets.
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	snippets, err := h.svc.List(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleGet serves GET /snippets/{id}.
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleCreate serves POST /snippets.
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req snippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.svc.Create(r.Context(), user, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snippet)
}

// HandleUpdate serves PUT /snippets/{id}. Each update is a new version.
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req snippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.svc.Update(r.Context(), user, id, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete serves DELETE /snippets/{id}.
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.Delete(r.Context(), user, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleValidate serves POST /snippets/validate. The body of a successful
// response is always a JSON array of diagnostics, empty when the code
// compiles.
func (h *SnippetHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	diags, err := h.svc.Validate(r.Context(), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	if diags == nil {
		diags = []string{}
	}
	writeJSON(w, http.StatusOK, diags)
}

// HandleRollback serves POST /snippets/{id}/rollback.
func (h *SnippetHandler) HandleRollback(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req rollbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.svc.Rollback(r.Context(), user, id, req.VersionNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleDiff serves GET /snippets/{id}/diff?v1=&v2=.
func (h *SnippetHandler) HandleDiff(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	v1, err := queryInt(r, "v1")
	if err != nil {
		writeError(w, err)
		return
	}
	v2, err := queryInt(r, "v2")
	if err != nil {
		writeError(w, err)
		return
	}

	diff, err := h.svc.Diff(r.Context(), user, id, v1, v2)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

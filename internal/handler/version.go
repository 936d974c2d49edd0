package handler

import (
	"net/http"
)

// HandleVersions serves GET /snippets/{id}/versions, newest first.
func (h *SnippetHandler) HandleVersions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	versions, err := h.svc.Versions(r.Context(), user, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

// HandleMetrics serves GET /snippets/{id}/versions/{number}/metrics.
func (h *SnippetHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	number, err := pathInt64(r, "number")
	if err != nil {
		writeError(w, err)
		return
	}

	metrics, err := h.svc.Metrics(r.Context(), user, id, int(number))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// HandleDeleteVersionByNumber serves DELETE /snippets/{id}/versions/{number}.
func (h *SnippetHandler) HandleDeleteVersionByNumber(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	number, err := pathInt64(r, "number")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.DeleteVersionByNumber(r.Context(), user, id, int(number)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteVersion serves DELETE /versions/{versionID}.
func (h *SnippetHandler) HandleDeleteVersion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	versionID, err := pathInt64(r, "versionID")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.DeleteVersionByID(r.Context(), user, versionID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

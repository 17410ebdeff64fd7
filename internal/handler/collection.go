package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/codevault/internal/auth"
	"github.com/sakif/codevault/internal/service"
)

// CollectionHandler manages user-curated groups of snippets.
//
// Collections hold references, not copies: deleting a collection never
// deletes its snippets, and a snippet can sit in many collections at once.
type CollectionHandler struct {
	collections *service.CollectionService
	logger      *slog.Logger
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(collections *service.CollectionService, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{collections: collections, logger: logger}
}

type createCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

// HandleList returns the logged-in user's collections.
//
// HTTP: GET /api/collections
// Auth: Required
func (h *CollectionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	collections, err := h.collections.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, collections)
}

// HandleCreate makes a new, empty collection.
//
// HTTP: POST /api/collections
// Auth: Required
// REQUEST BODY: {"name":"...","description":"...","isPublic":false}
func (h *CollectionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req createCollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("invalid collection JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	collection, err := h.collections.Create(r.Context(), userID, req.Name, req.Description, req.IsPublic)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, collection)
}

// HandleDelete removes a collection the caller owns.
//
// HTTP: DELETE /api/collections/{id}
//
// Deleting an absent collection still returns 204: the end state the
// caller asked for (collection gone) holds either way.
func (h *CollectionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	if _, err := h.collections.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAddSnippet puts a snippet into a collection.
//
// HTTP: POST /api/collections/{id}/snippets/{snippetID}
//
// Adding an already-present snippet is a no-op success, so the frontend
// can retry freely.
func (h *CollectionHandler) HandleAddSnippet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	err := h.collections.AddSnippet(r.Context(), r.PathValue("id"), r.PathValue("snippetID"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveSnippet takes a snippet out of a collection.
//
// HTTP: DELETE /api/collections/{id}/snippets/{snippetID}
func (h *CollectionHandler) HandleRemoveSnippet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	_, err := h.collections.RemoveSnippet(r.Context(), r.PathValue("id"), r.PathValue("snippetID"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

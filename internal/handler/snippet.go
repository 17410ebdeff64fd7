package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/codevault/internal/auth"
	"github.com/sakif/codevault/internal/repository"
	"github.com/sakif/codevault/internal/service"
)

// SnippetHandler manages CRUD, search, likes, and forks for code snippets.
//
// WHY A SEPARATE HANDLER?
// Each handler struct "owns" one area of functionality. This makes code
// easier to test (mock dependencies independently), understand (find all
// snippet logic in one place), and modify (change snippet storage without
// touching session handling).
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewSnippetHandler creates a new SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

type createSnippetRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Code        string   `json:"code"`
	Language    string   `json:"language"`
	Tags        []string `json:"tags"`
	IsPublic    bool     `json:"isPublic"`
}

type updateSnippetRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Code        *string   `json:"code"`
	Language    *string   `json:"language"`
	Tags        *[]string `json:"tags"`
	IsPublic    *bool     `json:"isPublic"`
}

// HandleSearch returns public snippets matching the query parameters.
//
// HTTP: GET /api/snippets?q=...&language=...&tags=a,b
//
// FILTER SEMANTICS:
//   - q:        case-insensitive substring over title, description, or code
//   - language: exact match
//   - tags:     comma-separated; a snippet matches if it has ANY of them
//
// All present filters must hold (AND). With no parameters, every public
// snippet is returned. Private snippets never appear here, even for their
// owner — the owner's dashboard uses /api/users/{id}/snippets instead.
func (h *SnippetHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	language := r.URL.Query().Get("language")

	var tags []string
	if raw := r.URL.Query().Get("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	snippets, err := h.snippets.Search(r.Context(), q, language, tags)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleListForUser returns a user's snippets.
//
// HTTP: GET /api/users/{id}/snippets
// Auth: Optional
//
// The owner sees all of their snippets; everyone else sees only the
// public ones.
func (h *SnippetHandler) HandleListForUser(w http.ResponseWriter, r *http.Request) {
	ownerID := r.PathValue("id")
	if ownerID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "user ID is required"})
		return
	}

	viewerID, _ := auth.UserIDFromContext(r.Context())

	snippets, err := h.snippets.ListForUser(r.Context(), ownerID, viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleGet returns a single snippet and counts the view.
//
// HTTP: GET /api/snippets/{id}
// Auth: Optional
//
// A private snippet is 404 for anyone but its owner — the same status an
// absent ID gets, so probing cannot distinguish "hidden" from "missing".
// The view counter is bumped on every successful read, including reads by
// the owner.
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	viewerID, _ := auth.UserIDFromContext(r.Context())

	snippet, err := h.snippets.GetByID(r.Context(), id, viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.snippets.IncrementViews(r.Context(), id); err != nil {
		// A lost view count should not fail the read.
		h.logger.Warn("failed to increment views", slog.String("id", id), slog.String("error", err.Error()))
	} else {
		snippet.Views++
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleCreate saves a new snippet owned by the logged-in user.
//
// HTTP: POST /api/snippets
// Auth: Required
// REQUEST BODY: {"title":"...","code":"...","language":"go","tags":["cli"],"isPublic":true}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req createSnippetRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	snippet, err := h.snippets.Create(r.Context(), userID, service.CreateSnippetInput{
		Title:       req.Title,
		Description: req.Description,
		Code:        req.Code,
		Language:    req.Language,
		Tags:        req.Tags,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// HandleUpdate applies a partial update to a snippet the caller owns.
//
// HTTP: PUT /api/snippets/{id}
// Auth: Required
//
// Only fields present in the body change; sending {"isPublic":false} flips
// visibility without touching the title or code. Pointer fields distinguish
// "absent" from "set to the zero value".
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req updateSnippetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	snippet, err := h.snippets.Update(r.Context(), r.PathValue("id"), userID, repository.SnippetUpdate{
		Title:       req.Title,
		Description: req.Description,
		Code:        req.Code,
		Language:    req.Language,
		Tags:        req.Tags,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet the caller owns.
//
// HTTP: DELETE /api/snippets/{id}
// Auth: Required
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	if err := h.snippets.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent) // 204 No Content — successful deletion, no body
}

// HandleToggleLike flips the caller's like on a snippet.
//
// HTTP: POST /api/snippets/{id}/like
// Auth: Required
// RESPONSE: {"liked": true, "likes": 4}
//
// The same endpoint both likes and unlikes: calling it twice returns the
// snippet to its previous state.
func (h *SnippetHandler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	liked, likes, err := h.snippets.ToggleLike(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"liked": liked,
		"likes": likes,
	})
}

// HandleFork copies a snippet into the caller's account.
//
// HTTP: POST /api/snippets/{id}/fork
// Auth: Required
//
// The fork is a point-in-time copy: later edits to the original do not
// propagate. The response is the new snippet, which belongs to the caller.
func (h *SnippetHandler) HandleFork(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	fork, err := h.snippets.Fork(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, fork)
}

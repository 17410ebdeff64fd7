package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/codevault/internal/auth"
	"github.com/sakif/codevault/internal/repository"
	"github.com/sakif/codevault/internal/service"
)

// SessionHandler manages signup, login, logout, and the current-user lookup.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignup  → create an account and issue a session cookie
//   - HandleLogin   → verify credentials and issue a session cookie
//   - HandleLogout  → clear the session cookie
//   - HandleMe      → return the currently logged-in user's profile
//   - HandleUpdateProfile → change username/bio for the logged-in user
//
// The handler only parses HTTP and sets cookies; all account rules
// (uniqueness, password policy, credential checks) live in the service.
type SessionHandler struct {
	sessions *service.SessionService
	tokens   *auth.TokenService
	logger   *slog.Logger
}

// NewSessionHandler creates a SessionHandler. All dependencies are injected;
// the handler has no knowledge of how they're constructed.
func NewSessionHandler(sessions *service.SessionService, tokens *auth.TokenService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// setSessionCookie stores the signed token in an HttpOnly cookie.
//
// HttpOnly = JavaScript cannot read this cookie (XSS protection).
// SameSite=Lax = cookie is sent on top-level navigations but not cross-site POSTs.
// Secure should be true in production (HTTPS only). We leave it false for local dev.
func (h *SessionHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // Uncomment in production (requires HTTPS)
	})
}

// HandleSignup registers a new account.
//
// HTTP: POST /api/auth/signup
// REQUEST BODY: {"email": "...", "password": "...", "username": "..."}
//
// On success the session cookie is set and the new profile is returned
// with 201, so the frontend is logged in immediately after signing up.
func (h *SessionHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("signup: invalid JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	result, err := h.sessions.Signup(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, result.User)
}

// HandleLogin verifies credentials and starts a session.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"email": "...", "password": "..."}
//
// A failed login always produces the same 401 body, whether the email is
// unknown or the password is wrong.
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("login: invalid JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	result, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, result.User)
}

// HandleLogout clears the session cookie, effectively logging the user out.
//
// HTTP: POST /api/auth/logout
//
// WHY POST AND NOT GET?
// Logout is a state-changing operation. Using GET would be vulnerable to
// CSRF and to browsers pre-fetching the URL. POST ensures intentional action.
//
// Since sessions are stateless tokens, "logout" just means deleting the
// client-side cookie. The token remains technically valid until it expires,
// but without the cookie the browser can't send it.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // tells the browser to delete the cookie immediately
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the currently authenticated user's profile, or null when
// nobody is logged in.
//
// HTTP: GET /api/me
// Auth: Optional
//
// This route deliberately never 401s: the frontend calls it on every page
// load to decide what to render, and an anonymous visitor is a normal
// answer, not an error. An expired or tampered cookie also yields null.
func (h *SessionHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(auth.CookieName); err == nil {
		token = c.Value
	}

	profile, err := h.sessions.CurrentUser(r.Context(), token)
	if err != nil {
		h.logger.Error("HandleMe: lookup failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	// Encodes as JSON null when profile is nil.
	writeJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
}

// HandleUpdateProfile changes the logged-in user's username and/or bio.
//
// HTTP: PUT /api/me
// Auth: Required
// REQUEST BODY: {"username": "...", "bio": "..."} — both optional; absent
// fields are left unchanged.
func (h *SessionHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Should never happen on a RequireAuth-protected route, but be safe.
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	profile, err := h.sessions.UpdateProfile(r.Context(), userID, repository.UserUpdate{
		Username: req.Username,
		Bio:      req.Bio,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

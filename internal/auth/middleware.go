package auth

import (
	"context"
	"net/http"
)

// CookieName is the session cookie. It has carried this name since the
// catalog's first release, so existing clients keep working.
const CookieName = "authToken"

// contextKey is an unexported type for context keys in this package.
// Using a package-private type (instead of a plain string) means no other
// package can read or shadow the session value in the context.
type contextKey string

const sessionKey contextKey = "session"

// RequireAuth enforces authentication on protected routes.
//
// It reads the token from the authToken cookie and FULLY validates it —
// signature and expiry, not mere cookie presence. A missing or invalid token
// gets 401 and the chain stops. The validated session lands in the request
// context for handlers to read.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := extractSession(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the session if a valid token is present but never
// blocks the request. Use it on public routes where logged-in users see a
// little more (e.g. their own private snippets in a profile listing).
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session, err := extractSession(r, tokens); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), sessionKey, session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext retrieves the authenticated session from the request
// context. ok is false for anonymous requests.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}

// UserIDFromContext is a convenience for handlers that only need the ID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	s, ok := SessionFromContext(ctx)
	if !ok {
		return "", false
	}
	return s.UserID, true
}

// extractSession reads the session cookie and validates its token.
func extractSession(r *http.Request, tokens *TokenService) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		// http.ErrNoCookie — no session, just anonymous
		return nil, err
	}
	return tokens.Validate(cookie.Value)
}

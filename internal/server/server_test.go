package server_test

// END-TO-END API TESTS:
// These drive the full stack — router, middleware, handlers, services, and
// a real store — through httptest, without opening a network listener. The
// jsonfile backend in a temp directory keeps each test isolated and fast.

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/codevault/internal/server"
)

// testAPI wraps the router with cookie-carrying request helpers so a test
// reads like a client session.
type testAPI struct {
	t       *testing.T
	router  http.Handler
	cookies []*http.Cookie
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	srv, err := server.New(server.Config{
		StoreBackend: server.BackendJSONFile,
		StoreDir:     t.TempDir(),
		JWTSecret:    "test-secret-at-least-16-chars!!",
	}, logger)
	if err != nil {
		t.Fatalf("failed to create test server: %v", err)
	}

	return &testAPI{t: t, router: srv.Router()}
}

// do sends a request, carrying any cookies collected from earlier responses
// (the session cookie, mainly) and absorbing new ones.
func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		a.setCookie(c)
	}
	return rec
}

func (a *testAPI) setCookie(c *http.Cookie) {
	for i, existing := range a.cookies {
		if existing.Name == c.Name {
			a.cookies[i] = c
			return
		}
	}
	a.cookies = append(a.cookies, c)
}

// signup registers a user and leaves the session cookie in place.
func (a *testAPI) signup(email, username string) map[string]any {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/signup",
		fmt.Sprintf(`{"email":%q,"password":"longenough","username":%q}`, email, username))
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("signup failed: status %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeMap(a.t, rec)
}

func (a *testAPI) logout() {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/logout", "")
	if rec.Code != http.StatusOK {
		a.t.Fatalf("logout failed: status %d", rec.Code)
	}
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("decoding response: %v (body %s)", err, rec.Body.String())
	}
	return m
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var l []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&l); err != nil {
		t.Fatalf("decoding response list: %v (body %s)", err, rec.Body.String())
	}
	return l
}

// =========================================================================
// AUTH FLOW
// =========================================================================

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	user := api.signup("ada@example.com", "ada")
	assert.NotEmpty(t, user["id"])
	assert.Equal(t, "ada@example.com", user["email"])

	// The signup response set the session cookie; /api/me resolves it.
	rec := api.do(http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	me := decodeMap(t, rec)
	assert.Equal(t, user["id"], me["id"])

	// Logout clears the cookie; /api/me now reports nobody (JSON null, 200).
	api.logout()
	rec = api.do(http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	// Login restores the session.
	rec = api.do(http.MethodPost, "/api/auth/login",
		`{"email":"ada@example.com","password":"longenough"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	loggedIn := decodeMap(t, rec)
	assert.Equal(t, user["id"], loggedIn["id"])
}

func TestAuth_ErrorStatuses(t *testing.T) {
	api := newTestAPI(t)
	api.signup("ada@example.com", "ada")
	api.logout()

	// Duplicate email → 409.
	rec := api.do(http.MethodPost, "/api/auth/signup",
		`{"email":"ada@example.com","password":"longenough","username":"other"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeMap(t, rec)["error"])

	// Short password → 400 validation error.
	rec = api.do(http.MethodPost, "/api/auth/signup",
		`{"email":"new@example.com","password":"short","username":"new"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Bad credentials → 401, same body for unknown email and wrong password.
	recUnknown := api.do(http.MethodPost, "/api/auth/login",
		`{"email":"nobody@example.com","password":"longenough"}`)
	recWrong := api.do(http.MethodPost, "/api/auth/login",
		`{"email":"ada@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	assert.Equal(t, http.StatusUnauthorized, recWrong.Code)
	assert.Equal(t, recUnknown.Body.String(), recWrong.Body.String())
}

// =========================================================================
// SNIPPET LIFECYCLE
// =========================================================================

func TestSnippetLifecycle(t *testing.T) {
	api := newTestAPI(t)
	api.signup("ada@example.com", "ada")

	// Create.
	rec := api.do(http.MethodPost, "/api/snippets",
		`{"title":"Quicksort","code":"func qs() {}","language":"go","tags":["algorithms"],"isPublic":true}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	created := decodeMap(t, rec)
	id := created["id"].(string)
	assert.NotEmpty(t, id)

	// Read counts a view.
	rec = api.do(http.MethodGet, "/api/snippets/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	got := decodeMap(t, rec)
	assert.Equal(t, float64(1), got["views"])

	// Partial update: flip the title, leave everything else alone.
	rec = api.do(http.MethodPut, "/api/snippets/"+id, `{"title":"Mergesort"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	updated := decodeMap(t, rec)
	assert.Equal(t, "Mergesort", updated["title"])
	assert.Equal(t, "func qs() {}", updated["code"])

	// Delete.
	rec = api.do(http.MethodDelete, "/api/snippets/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodGet, "/api/snippets/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSnippet_RequiresAuthForWrites(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/snippets", `{"title":"anon","code":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSnippet_PrivateVisibility(t *testing.T) {
	api := newTestAPI(t)
	api.signup("ada@example.com", "ada")

	rec := api.do(http.MethodPost, "/api/snippets",
		`{"title":"secret","code":"x","isPublic":false}`)
	created := decodeMap(t, rec)
	id := created["id"].(string)

	// The owner can read it.
	rec = api.do(http.MethodGet, "/api/snippets/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// An anonymous visitor gets 404 — indistinguishable from a missing ID.
	api.logout()
	rec = api.do(http.MethodGet, "/api/snippets/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSnippet_OwnershipEnforced(t *testing.T) {
	api := newTestAPI(t)
	api.signup("ada@example.com", "ada")

	rec := api.do(http.MethodPost, "/api/snippets",
		`{"title":"hers","code":"x","isPublic":true}`)
	id := decodeMap(t, rec)["id"].(string)

	api.logout()
	api.signup("bob@example.com", "bob")

	rec = api.do(http.MethodPut, "/api/snippets/"+id, `{"title":"stolen"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(http.MethodDelete, "/api/snippets/"+id, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// =========================================================================
// SEARCH
// =========================================================================

func TestSearch_Filters(t *testing.T) {
	api := newTestAPI(t)
	api.signup("ada@example.com", "ada")

	api.do(http.MethodPost, "/api/snippets",
		`{"title":"React useEffect Cleanup","code":"useEffect(() => {})","language":"javascript","tags":["react"],"isPublic":true}`)
	api.do(http.MethodPost, "/api/snippets",
		`{"title":"notes","code":"react mentions hidden","language":"javascript","isPublic":false}`)
	api.do(http.MethodPost, "/api/snippets",
		`{"title":"goroutines","code":"go func() {}()","language":"go","tags":["concurrency"],"isPublic":true}`)

	// Substring query over public snippets only.
	rec := api.do(http.MethodGet, "/api/snippets?q=react", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	results := decodeList(t, rec)
	assert.Len(t, results, 1)
	assert.Equal(t, "React useEffect Cleanup", results[0]["title"])

	// Language + tags compose.
	rec = api.do(http.MethodGet, "/api/snippets?language=go&tags=concurrency,missing", "")
	results = decodeList(t, rec)
	assert.Len(t, results, 1)
	assert.Equal(t, "goroutines", results[0]["title"])

	// No filters: every public snippet.
	rec = api.do(http.MethodGet, "/api/snippets", "")
	assert.Len(t, decodeList(t, rec), 2)
}

// =========================================================================
// LIKES AND FORKS
// =========================================================================

func TestLikeToggle(t *testing.T) {
	api := newTestAPI(t)
	api.signup("ada@example.com", "ada")

	rec := api.do(http.MethodPost, "/api/snippets",
		`{"title":"likeable","code":"x","isPublic":true}`)
	id := decodeMap(t, rec)["id"].(string)

	rec = api.do(http.MethodPost, "/api/snippets/"+id+"/like", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	first := decodeMap(t, rec)
	assert.Equal(t, true, first["liked"])
	assert.Equal(t, float64(1), first["likes"])

	// Toggling again undoes the like.
	rec = api.do(http.MethodPost, "/api/snippets/"+id+"/like", "")
	second := decodeMap(t, rec)
	assert.Equal(t, false, second["liked"])
	assert.Equal(t, float64(0), second["likes"])
}

func TestFork(t *testing.T) {
	api := newTestAPI(t)
	api.signup("ada@example.com", "ada")

	rec := api.do(http.MethodPost, "/api/snippets",
		`{"title":"Quicksort","code":"func qs() {}","language":"go","isPublic":true}`)
	originalID := decodeMap(t, rec)["id"].(string)

	api.logout()
	forker := api.signup("bob@example.com", "bob")

	rec = api.do(http.MethodPost, "/api/snippets/"+originalID+"/fork", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	fork := decodeMap(t, rec)
	assert.Equal(t, "Quicksort (Forked)", fork["title"])
	assert.Equal(t, forker["id"], fork["userId"])
	assert.Equal(t, originalID, fork["forkedFrom"])
	assert.Equal(t, float64(0), fork["likes"])
	assert.Equal(t, float64(0), fork["forkCount"])

	// The original's fork count is the observable side effect.
	rec = api.do(http.MethodGet, "/api/snippets/"+originalID, "")
	original := decodeMap(t, rec)
	assert.Equal(t, float64(1), original["forkCount"])
}

// =========================================================================
// COLLECTIONS
// =========================================================================

func TestCollections(t *testing.T) {
	api := newTestAPI(t)
	api.signup("ada@example.com", "ada")

	rec := api.do(http.MethodPost, "/api/snippets",
		`{"title":"member","code":"x","isPublic":true}`)
	snippetID := decodeMap(t, rec)["id"].(string)

	rec = api.do(http.MethodPost, "/api/collections",
		`{"name":"Go Recipes","description":"useful bits"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	collectionID := decodeMap(t, rec)["id"].(string)

	// Membership round trip.
	rec = api.do(http.MethodPost, "/api/collections/"+collectionID+"/snippets/"+snippetID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodGet, "/api/collections", "")
	collections := decodeList(t, rec)
	assert.Len(t, collections, 1)
	assert.Equal(t, []any{snippetID}, collections[0]["snippetIds"])

	rec = api.do(http.MethodDelete, "/api/collections/"+collectionID+"/snippets/"+snippetID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Adding an absent snippet is a 404.
	rec = api.do(http.MethodPost, "/api/collections/"+collectionID+"/snippets/nonexistent", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Deleting the collection leaves the snippet alive.
	rec = api.do(http.MethodDelete, "/api/collections/"+collectionID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodGet, "/api/snippets/"+snippetID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

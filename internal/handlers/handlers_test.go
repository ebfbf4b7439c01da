package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Elizabethomito/ewastetrack/backend/internal/middleware"
	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store/memory"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store/sqlite"
)

const (
	testSecret   = "handler-test-secret"
	testPassword = "password123"
)

var testDBCounter atomic.Uint64

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer creates a Server backed by a unique in-memory SQLite database.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	// Each test gets its own named shared-cache memory DB so connections
	// in the pool all see the same tables without interfering across tests.
	dsn := fmt.Sprintf("file:handlerdb%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", testDBCounter.Add(1))
	st, err := sqlite.Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("newTestServer: open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return &Server{Store: st, Secret: testSecret, Mode: ModePrimary, Log: quietLogger()}
}

// newMemoryServer creates a Server on the in-memory fallback store.
func newMemoryServer(t *testing.T) *Server {
	t.Helper()
	return &Server{Store: memory.New(), Secret: testSecret, Mode: ModeFallback, Log: quietLogger()}
}

// bothStores runs fn once per backend.
func bothStores(t *testing.T, fn func(t *testing.T, srv *Server)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newTestServer(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, newMemoryServer(t)) })
}

// jsonBody encodes v to JSON and returns a bytes.Buffer.
func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("jsonBody: %v", err)
	}
	return buf
}

// ctxWithUser attaches a user id and role to a request's context
// (simulates Authenticate middleware).
func ctxWithUser(r *http.Request, userID, role string) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), userID, "", role))
}

// call sends a request through the full route table, so authentication
// and role checks run exactly as in production. A nil body sends none.
func call(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		rd = jsonBody(t, body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Routes(true).ServeHTTP(rec, req)
	return rec
}

// expect fails the test unless rec has the given status.
func expect(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

// decodeAs decodes the recorded response body into a T.
func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

// register creates an account through the API and returns its token and
// user. The email is username@campus.test.
func register(t *testing.T, srv *Server, username string, role models.UserRole, dept string) (string, models.User) {
	t.Helper()
	rec := call(t, srv, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Username:   username,
		Email:      username + "@campus.test",
		Password:   testPassword,
		Department: dept,
		Role:       role,
	})
	expect(t, rec, http.StatusCreated)
	resp := decodeAs[models.AuthResponse](t, rec)
	return resp.Token, resp.User
}

// profile fetches the caller's account.
func profile(t *testing.T, srv *Server, token string) models.User {
	t.Helper()
	rec := call(t, srv, http.MethodGet, "/api/auth/profile", token, nil)
	expect(t, rec, http.StatusOK)
	return decodeAs[models.User](t, rec)
}

func intPtr(n int) *int { return &n }

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

func TestStoreError(t *testing.T) {
	srv := &Server{Log: quietLogger()}
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"state", fmt.Errorf("join: %w", &models.StateError{Kind: models.ErrCampaignFull, Msg: "campaign is full"}), http.StatusBadRequest, "campaign is full"},
		{"not found", fmt.Errorf("get: %w", store.ErrNotFound), http.StatusNotFound, "thing not found"},
		{"duplicate", store.ErrDuplicate, http.StatusBadRequest, "already exists"},
		{"unavailable", fmt.Errorf("ping: %w", store.ErrUnavailable), http.StatusServiceUnavailable, "service unavailable"},
		{"store deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, "service unavailable"},
		{"other", errors.New("disk on fire at /var/lib/ewaste.db"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.storeError(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil), tc.err, "thing not found")
			expect(t, rec, tc.status)
			if body := decodeAs[errorBody](t, rec); body.Message != tc.msg {
				t.Errorf("message: %q", body.Message)
			}
			if strings.Contains(rec.Body.String(), "/var/lib") {
				t.Error("response leaks internal error text")
			}
		})
	}
}

func TestStoreError_RequestTimeout(t *testing.T) {
	srv := &Server{Log: quietLogger()}
	h := chimw.Timeout(time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		srv.storeError(w, r, fmt.Errorf("list items: %w", r.Context().Err()), "")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ewaste", nil))
	expect(t, rec, http.StatusGatewayTimeout)
}

func TestStoreError_CancelledRequestWritesNothing(t *testing.T) {
	srv := &Server{Log: quietLogger()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/ewaste", nil).WithContext(ctx)
	srv.storeError(rec, req, fmt.Errorf("list items: %w", ctx.Err()), "")
	if rec.Body.Len() != 0 || rec.Header().Get("Content-Type") != "" {
		t.Errorf("wrote %d %q", rec.Code, rec.Body.String())
	}
}

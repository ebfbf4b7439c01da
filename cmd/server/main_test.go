package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Elizabethomito/ewastetrack/backend/internal/config"
	"github.com/Elizabethomito/ewastetrack/backend/internal/handlers"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStore_Memory(t *testing.T) {
	st, mode, err := openStore(context.Background(), config.DatabaseConfig{Store: config.StoreMemory}, quietLogger())
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer st.Close()
	if mode != handlers.ModePrimary {
		t.Errorf("mode: %q", mode)
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := config.DatabaseConfig{Store: config.StoreSQLite, DSN: "file:mainopen?mode=memory&cache=shared"}
	st, mode, err := openStore(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer st.Close()
	if mode != handlers.ModePrimary {
		t.Errorf("mode: %q", mode)
	}
	if err := st.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestOpenStore_Fallback(t *testing.T) {
	bad := config.DatabaseConfig{Store: config.StoreSQLite, DSN: "file:/nonexistent-dir/sub/ewaste.db"}

	if _, _, err := openStore(context.Background(), bad, quietLogger()); err == nil {
		t.Fatal("expected error without fallback")
	}

	bad.FallbackEnabled = true
	st, mode, err := openStore(context.Background(), bad, quietLogger())
	if err != nil {
		t.Fatalf("openStore with fallback: %v", err)
	}
	defer st.Close()
	if mode != handlers.ModeFallback {
		t.Errorf("mode: %q", mode)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	want := []string{"outer", "inner", "handler"}
	for i := range want {
		if i >= len(order) || order[i] != want[i] {
			t.Fatalf("order: %v", order)
		}
	}
}

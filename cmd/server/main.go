// main is the entry point for the e-waste tracker API server.
//
// It loads configuration, opens the configured store (falling back to the
// in-memory store if allowed), registers all HTTP routes, and serves until
// SIGINT or SIGTERM.
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE — how this file fits into the project
// ────────────────────────────────────────────────────────────────────
// This file is the "composition root": the single place where all the
// independent packages (config, store, handlers, middleware) are wired
// together. Keeping this wiring in main.go means every other package stays
// easy to test in isolation (they never import each other in a circle).
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Elizabethomito/ewastetrack/backend/internal/config"
	"github.com/Elizabethomito/ewastetrack/backend/internal/handlers"
	"github.com/Elizabethomito/ewastetrack/backend/internal/logging"
	"github.com/Elizabethomito/ewastetrack/backend/internal/middleware"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store/memory"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store/mongo"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store/sqlite"
)

// openTimeout bounds connecting to the primary store at startup.
const openTimeout = 10 * time.Second

func main() {
	// ── Configuration ────────────────────────────────────────────────
	// Defaults, then CONFIG_FILE, then the environment. See
	// internal/config for every key.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", logging.Err(err))
		os.Exit(1)
	}

	log, err := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		slog.Error("configure logging", logging.Err(err))
		os.Exit(1)
	}
	slog.SetDefault(log)

	// ── Store ────────────────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	st, mode, err := openStore(ctx, cfg.Database, log)
	cancel()
	if err != nil {
		log.Error("open store", "store", cfg.Database.Store, logging.Err(err))
		os.Exit(1)
	}
	defer st.Close()

	if n, err := st.Recover(context.Background()); err != nil {
		log.Error("recover interrupted writes", logging.Err(err))
		os.Exit(1)
	} else if n > 0 {
		log.Info("recovered interrupted writes", "count", n)
	}

	// ── Handlers ─────────────────────────────────────────────────────
	srv := &handlers.Server{
		Store:         st,
		Secret:        cfg.JWT.Secret,
		TokenTTL:      cfg.JWT.TokenTTL,
		NoAdminSignup: !cfg.Server.AdminSignup,
		Mode:          mode,
		Log:           log,
	}
	mux := srv.Routes(cfg.Server.SeedEnabled)
	if cfg.Server.SeedEnabled {
		log.Warn("demo seed endpoint enabled", "path", "/api/admin/seed")
	}

	// ── Middleware chain ─────────────────────────────────────────────
	// Outermost first: CORS answers preflights before anything else runs,
	// every request gets an id before it is logged, and Recoverer sits
	// inside the logger so a panic is still logged as a 500.
	handler := chain(mux,
		middleware.CORS(cfg.Server.CORSOrigin),
		chimw.RequestID,
		chimw.RealIP,
		middleware.RequestLogger(log),
		chimw.Recoverer,
		chimw.Timeout(cfg.Server.RequestTimeout),
	)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("e-waste tracker API listening", "addr", cfg.Server.Addr, "store", cfg.Database.Store, "mode", mode)
		errCh <- httpServer.ListenAndServe()
	}()

	// ── Graceful shutdown ────────────────────────────────────────────
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", logging.Err(err))
			os.Exit(1)
		}
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", logging.Err(err))
		}
	}
}

// chain wraps h so that mws[0] is the outermost middleware.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// openStore opens the configured backend. When it cannot be reached and
// fallback is enabled, the in-memory store is returned with mode
// handlers.ModeFallback.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (store.Store, string, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using the in-memory store; data will not survive a restart")
		return memory.New(), handlers.ModePrimary, nil
	case config.StoreMongo:
		st, err = mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		st, err = sqlite.Open(ctx, cfg.DSN)
	}
	if err == nil {
		return st, handlers.ModePrimary, nil
	}
	if !cfg.FallbackEnabled {
		return nil, "", err
	}
	log.Warn("primary store unavailable, falling back to in-memory store",
		"store", cfg.Store, logging.Err(err))
	return memory.New(), handlers.ModeFallback, nil
}

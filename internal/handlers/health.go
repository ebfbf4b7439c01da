package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Elizabethomito/ewastetrack/backend/internal/logging"
)

// pingTimeout bounds the store check in Health.
const pingTimeout = 2 * time.Second

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Mode      string    `json:"mode"`
	Message   string    `json:"message"`
}

// Health handles GET /api/health. It answers 503 when the store does not
// respond to a ping.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	mode := s.Mode
	if mode == "" {
		mode = ModePrimary
	}
	resp := HealthResponse{
		Status:    "OK",
		Timestamp: s.now(),
		Database:  "connected",
		Mode:      mode,
		Message:   "e-waste tracker API is running",
	}
	if mode == ModeFallback {
		resp.Message = "running on the in-memory fallback store; data will not survive a restart"
	}

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		s.logger().Warn("health check failed", logging.Err(err))
		resp.Status = "ERROR"
		resp.Database = "disconnected"
		resp.Message = "database is not reachable"
		respond(w, http.StatusServiceUnavailable, resp)
		return
	}
	respond(w, http.StatusOK, resp)
}

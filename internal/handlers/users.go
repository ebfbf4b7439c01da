package handlers

import (
	"net/http"
	"strconv"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/reports"
)

// Leaderboard sizes.
const (
	DefaultLeaderboardLimit     = 20
	DefaultDepartmentBoardLimit = 10
	MaxLeaderboardLimit         = 100
)

// limitParam reads ?limit=, falling back to def. Values outside
// 1..MaxLeaderboardLimit are rejected.
func limitParam(r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxLeaderboardLimit {
		return 0, false
	}
	return n, true
}

func leaderboard(users []models.User) []models.LeaderboardEntry {
	out := make([]models.LeaderboardEntry, len(users))
	for i, u := range users {
		out[i] = models.LeaderboardEntry{
			ID:                u.ID,
			Username:          u.Username,
			Department:        u.Department,
			GreenScore:        u.GreenScore,
			TotalContribution: u.TotalContribution,
		}
	}
	return out
}

// ListUsers handles GET /api/users  (admin only)
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Store.ListUsers(r.Context())
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, users)
}

// Leaderboard handles GET /api/users/leaderboard?limit=
func (s *Server) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r, DefaultLeaderboardLimit)
	if !ok {
		respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}
	users, err := s.Store.Leaderboard(r.Context(), "", limit)
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, leaderboard(users))
}

// DepartmentLeaderboard handles
// GET /api/users/leaderboard/department/{department}?limit=
func (s *Server) DepartmentLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r, DefaultDepartmentBoardLimit)
	if !ok {
		respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}
	users, err := s.Store.Leaderboard(r.Context(), r.PathValue("department"), limit)
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, leaderboard(users))
}

// SetGreenScore handles PATCH /api/users/{id}/green-score  (admin only)
func (s *Server) SetGreenScore(w http.ResponseWriter, r *http.Request) {
	var req models.SetGreenScoreRequest
	if !decodeValid(w, r, &req) {
		return
	}
	u, err := s.Store.SetGreenScore(r.Context(), r.PathValue("id"), *req.GreenScore)
	if err != nil {
		s.storeError(w, r, err, "user not found")
		return
	}
	s.logger().Info("green score set", "user_id", u.ID, "green_score", u.GreenScore)
	respond(w, http.StatusOK, models.UserActionResponse{Message: "green score updated successfully", User: u})
}

// UserStats handles GET /api/users/stats  (admin only)
func (s *Server) UserStats(w http.ResponseWriter, r *http.Request) {
	users, err := s.Store.ListUsers(r.Context())
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, reports.UserStats(users))
}

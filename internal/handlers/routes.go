package handlers

import (
	"net/http"

	"github.com/Elizabethomito/ewastetrack/backend/internal/middleware"
	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
)

// Routes registers every endpoint on a new ServeMux. The seed endpoint is
// only added when seed is true.
//
// Go 1.22+ ServeMux supports method prefixes ("GET /path") and path
// wildcards ("{id}") natively. A literal segment beats a wildcard, so
// /api/ewaste/stats/overview never reaches GetItem.
func (s *Server) Routes(seed bool) *http.ServeMux {
	mux := http.NewServeMux()

	// Chaining: auth(admin(handler)) means
	//   1. Authenticate runs first  → sets user id/email/role in context
	//   2. RequireRole runs second  → allows or rejects based on role
	//   3. handler runs last        → does the actual work
	auth := middleware.Authenticate(s.Secret)
	admin := middleware.RequireRole(string(models.RoleAdmin))
	bearer := func(h http.HandlerFunc) http.Handler { return auth(h) }
	adminOnly := func(h http.HandlerFunc) http.Handler { return auth(admin(h)) }

	// Public routes, no token required.
	mux.HandleFunc("GET /api/health", s.Health)
	mux.HandleFunc("POST /api/auth/register", s.Register)
	mux.HandleFunc("POST /api/auth/login", s.Login)
	mux.HandleFunc("GET /api/campaigns", s.ListCampaigns)
	mux.HandleFunc("GET /api/campaigns/{id}", s.GetCampaign)
	mux.HandleFunc("GET /api/users/leaderboard", s.Leaderboard)
	mux.HandleFunc("GET /api/users/leaderboard/department/{department}", s.DepartmentLeaderboard)

	// Authenticated: any logged-in user.
	mux.Handle("GET /api/auth/profile", bearer(s.Profile))
	mux.Handle("PUT /api/auth/profile", bearer(s.UpdateProfile))

	mux.Handle("POST /api/ewaste", bearer(s.ReportItem))
	mux.Handle("GET /api/ewaste", bearer(s.ListItems))
	mux.Handle("GET /api/ewaste/stats/overview", bearer(s.ItemStats))
	mux.Handle("GET /api/ewaste/search/qr/{itemId}", bearer(s.SearchByCode))
	mux.Handle("GET /api/ewaste/{id}", bearer(s.GetItem))
	mux.Handle("PATCH /api/ewaste/{id}/status", bearer(s.UpdateItemStatus))

	mux.Handle("POST /api/campaigns/{id}/join", bearer(s.JoinCampaign))
	mux.Handle("POST /api/campaigns/{id}/leave", bearer(s.LeaveCampaign))
	mux.Handle("GET /api/campaigns/stats/overview", bearer(s.CampaignStats))

	// Admin-only routes.
	mux.Handle("POST /api/campaigns", adminOnly(s.CreateCampaign))
	mux.Handle("PATCH /api/campaigns/{id}/status", adminOnly(s.SetCampaignStatus))
	mux.Handle("POST /api/campaigns/{id}/award", adminOnly(s.AwardCampaign))

	mux.Handle("GET /api/users", adminOnly(s.ListUsers))
	mux.Handle("GET /api/users/stats", adminOnly(s.UserStats))
	mux.Handle("PATCH /api/users/{id}/green-score", adminOnly(s.SetGreenScore))

	mux.Handle("GET /api/reports/compliance", adminOnly(s.ComplianceReport))
	mux.Handle("GET /api/reports/inventory-audit", adminOnly(s.InventoryAudit))
	mux.Handle("GET /api/reports/traceability/{id}", adminOnly(s.Traceability))
	mux.Handle("GET /api/reports/monthly-summary", adminOnly(s.MonthlySummary))

	if seed {
		mux.Handle("POST /api/admin/seed", adminOnly(s.SeedDemo))
	}
	return mux
}

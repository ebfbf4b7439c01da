package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Elizabethomito/ewastetrack/backend/internal/middleware"
	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/reports"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

const campaignNotFound = "campaign not found"

// CreateCampaign handles POST /api/campaigns  (admin only)
//
// New campaigns always start as upcoming. Admins open them for joining
// with PATCH /api/campaigns/{id}/status.
func (s *Server) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCampaignRequest
	if !decodeValid(w, r, &req) {
		return
	}
	audience := req.TargetAudience
	if len(audience) == 0 {
		audience = append([]string(nil), models.DefaultTargetAudience...)
	}

	now := s.now()
	c := models.Campaign{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		Type:            req.Type,
		StartDate:       req.StartDate.UTC(),
		EndDate:         req.EndDate.UTC(),
		TargetAudience:  audience,
		MaxParticipants: req.MaxParticipants,
		Rewards:         req.Rewards,
		Status:          models.CampaignUpcoming,
		CreatedBy:       middleware.GetUserID(r.Context()),
		Participants:    []models.Participant{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Store.CreateCampaign(r.Context(), &c); err != nil {
		s.storeError(w, r, err, "")
		return
	}
	if err := s.expandCampaign(r.Context(), &c); err != nil {
		s.storeError(w, r, err, "")
		return
	}
	s.logger().Info("campaign created", "campaign_id", c.ID, "type", c.Type)
	respond(w, http.StatusCreated, models.CampaignActionResponse{Message: "campaign created successfully", Campaign: &c})
}

// ListCampaigns handles GET /api/campaigns?type=&status=
func (s *Server) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cs, err := s.Store.ListCampaigns(r.Context(), store.CampaignFilter{
		Type:   models.CampaignType(q.Get("type")),
		Status: models.CampaignStatus(q.Get("status")),
	})
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	if err := s.expandCampaigns(r.Context(), cs); err != nil {
		s.storeError(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, cs)
}

// GetCampaign handles GET /api/campaigns/{id}
func (s *Server) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := s.Store.GetCampaign(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, r, err, campaignNotFound)
		return
	}
	s.respondCampaign(w, r, http.StatusOK, "", c)
}

// respondCampaign expands c and writes it, wrapped with msg when msg is set.
func (s *Server) respondCampaign(w http.ResponseWriter, r *http.Request, status int, msg string, c *models.Campaign) {
	if err := s.expandCampaign(r.Context(), c); err != nil {
		s.storeError(w, r, err, "")
		return
	}
	if msg == "" {
		respond(w, status, c)
		return
	}
	respond(w, status, models.CampaignActionResponse{Message: msg, Campaign: c})
}

// JoinCampaign handles POST /api/campaigns/{id}/join
//
// The store checks status, duplicate membership and capacity in the same
// atomic step as the insert, so two users racing for the last place cannot
// both get it.
func (s *Server) JoinCampaign(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	c, err := s.Store.JoinCampaign(r.Context(), r.PathValue("id"), userID, s.now())
	if err != nil {
		s.storeError(w, r, err, campaignNotFound)
		return
	}
	s.logger().Info("campaign joined", "campaign_id", c.ID, "user_id", userID, "participants", c.CurrentParticipants)
	s.respondCampaign(w, r, http.StatusOK, "successfully joined campaign", c)
}

// LeaveCampaign handles POST /api/campaigns/{id}/leave. Leaving a campaign
// you are not in succeeds and changes nothing.
func (s *Server) LeaveCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := s.Store.LeaveCampaign(r.Context(), r.PathValue("id"), middleware.GetUserID(r.Context()), s.now())
	if err != nil {
		s.storeError(w, r, err, campaignNotFound)
		return
	}
	s.respondCampaign(w, r, http.StatusOK, "successfully left campaign", c)
}

// SetCampaignStatus handles PATCH /api/campaigns/{id}/status  (admin only)
func (s *Server) SetCampaignStatus(w http.ResponseWriter, r *http.Request) {
	var req models.SetCampaignStatusRequest
	if !decodeValid(w, r, &req) {
		return
	}
	c, err := s.Store.SetCampaignStatus(r.Context(), r.PathValue("id"), req.Status, s.now())
	if err != nil {
		s.storeError(w, r, err, campaignNotFound)
		return
	}
	s.logger().Info("campaign status changed", "campaign_id", c.ID, "status", c.Status)
	s.respondCampaign(w, r, http.StatusOK, "campaign status updated successfully", c)
}

// AwardCampaign handles POST /api/campaigns/{id}/award  (admin only)
//
// Only completed campaigns can be awarded, and only once. A repeated call
// reports alreadyAwarded and credits nobody.
func (s *Server) AwardCampaign(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, err := s.Store.AwardCampaign(r.Context(), id, s.now())
	if err != nil {
		s.storeError(w, r, err, campaignNotFound)
		return
	}
	msg := "awarded campaign participants"
	if res.AlreadyAwarded {
		msg = "campaign rewards were already awarded"
	} else {
		s.logger().Info("campaign awarded", "campaign_id", id, "awarded", res.Awarded, "points", res.Points)
	}
	respond(w, http.StatusOK, models.AwardResponse{Message: msg, AwardResult: res})
}

// CampaignStats handles GET /api/campaigns/stats/overview
func (s *Server) CampaignStats(w http.ResponseWriter, r *http.Request) {
	cs, err := s.Store.ListCampaigns(r.Context(), store.CampaignFilter{})
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, reports.CampaignStats(cs, s.now()))
}

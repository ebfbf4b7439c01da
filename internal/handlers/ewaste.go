package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Elizabethomito/ewastetrack/backend/internal/itemcode"
	"github.com/Elizabethomito/ewastetrack/backend/internal/middleware"
	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/reports"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

// ReportItem handles POST /api/ewaste
//
// LEARNING NOTE — one store call, two writes
// Reporting an item also credits the reporter's green score and
// contribution. Both writes happen inside Store.ReportItem, which each
// backend makes atomic its own way, so a reporter is never credited for an
// item that was not saved (or the other way round).
func (s *Server) ReportItem(w http.ResponseWriter, r *http.Request) {
	var req models.ReportItemRequest
	if !decodeValid(w, r, &req) {
		return
	}

	now := s.now()
	code, err := itemcode.NewID(now)
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	it := models.Item{
		ID:          uuid.NewString(),
		ItemID:      code,
		Name:        req.Name,
		Category:    req.Category,
		Type:        req.Type,
		Description: req.Description,
		Department:  req.Department,
		ReportedBy:  middleware.GetUserID(r.Context()),
		Status:      models.ItemReported,
		Age:         *req.Age,
		Weight:      req.Weight,
		Location:    req.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if it.QRCode, err = itemcode.Encode(itemcode.PayloadFor(&it)); err != nil {
		s.storeError(w, r, err, "")
		return
	}

	if err := s.Store.ReportItem(r.Context(), &it); err != nil {
		s.storeError(w, r, err, "user not found")
		return
	}
	if err := s.expandItem(r.Context(), &it); err != nil {
		s.storeError(w, r, err, "")
		return
	}
	s.logger().Info("item reported", "item_id", it.ItemID, "user_id", it.ReportedBy, "weight", it.Weight)
	respond(w, http.StatusCreated, models.ReportItemResponse{
		Message: "e-waste item reported successfully",
		Ewaste:  it,
		QRCode:  it.QRCode,
	})
}

// ListItems handles GET /api/ewaste?department=&category=&status=&type=
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.Store.ListItems(r.Context(), store.ItemFilter{
		Department: q.Get("department"),
		Category:   models.ItemCategory(q.Get("category")),
		Status:     models.ItemStatus(q.Get("status")),
		Type:       models.ItemType(q.Get("type")),
	})
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	if err := s.expandItems(r.Context(), items); err != nil {
		s.storeError(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, items)
}

// GetItem handles GET /api/ewaste/{id}
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	it, err := s.Store.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, r, err, "e-waste item not found")
		return
	}
	if err := s.expandItem(r.Context(), it); err != nil {
		s.storeError(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, it)
}

// UpdateItemStatus handles PATCH /api/ewaste/{id}/status
func (s *Server) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateItemStatusRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if req.Vendor != "" {
		_, err := s.Store.GetUserByID(r.Context(), req.Vendor)
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusBadRequest, "vendor not found")
			return
		}
		if err != nil {
			s.storeError(w, r, err, "")
			return
		}
	}

	it, err := s.Store.UpdateItemStatus(r.Context(), r.PathValue("id"), models.ItemUpdate{
		Status:          req.Status,
		ScheduledPickup: req.ScheduledPickup,
		Vendor:          req.Vendor,
	})
	if err != nil {
		s.storeError(w, r, err, "e-waste item not found")
		return
	}
	if err := s.expandItem(r.Context(), it); err != nil {
		s.storeError(w, r, err, "")
		return
	}
	s.logger().Info("item status updated", "item_id", it.ItemID, "status", it.Status,
		"by", middleware.GetUserID(r.Context()))
	respond(w, http.StatusOK, models.ItemActionResponse{Message: "status updated successfully", Ewaste: it})
}

// ItemStats handles GET /api/ewaste/stats/overview
func (s *Server) ItemStats(w http.ResponseWriter, r *http.Request) {
	items, err := s.Store.ListItems(r.Context(), store.ItemFilter{})
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, reports.ItemStats(items))
}

// SearchByCode handles GET /api/ewaste/search/qr/{itemId}
func (s *Server) SearchByCode(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(r.PathValue("itemId")))
	if !itemcode.Valid(code) {
		respondError(w, http.StatusNotFound, "e-waste item not found")
		return
	}
	it, err := s.Store.GetItemByCode(r.Context(), code)
	if err != nil {
		s.storeError(w, r, err, "e-waste item not found")
		return
	}
	if err := s.expandItem(r.Context(), it); err != nil {
		s.storeError(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, it)
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/Elizabethomito/ewastetrack/backend/internal/reports"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

// ComplianceReport handles GET /api/reports/compliance?startDate=&endDate=
func (s *Server) ComplianceReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period := reports.Period{StartDate: q.Get("startDate"), EndDate: q.Get("endDate")}
	from, to, err := reports.ParseRange(period.StartDate, period.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := s.Store.ListItems(r.Context(), store.ItemFilter{From: from, To: to})
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, reports.Compliance(items, period))
}

// InventoryAudit handles GET /api/reports/inventory-audit
func (s *Server) InventoryAudit(w http.ResponseWriter, r *http.Request) {
	items, err := s.Store.ListItems(r.Context(), store.ItemFilter{})
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ReportedBy)
	}
	users, err := s.usersByID(r.Context(), ids)
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, reports.InventoryAudit(items, users))
}

// Traceability handles GET /api/reports/traceability/{id}
func (s *Server) Traceability(w http.ResponseWriter, r *http.Request) {
	it, err := s.Store.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, r, err, "e-waste item not found")
		return
	}
	if err := s.expandItem(r.Context(), it); err != nil {
		s.storeError(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, reports.Traceability(it))
}

// MonthlySummary handles GET /api/reports/monthly-summary?year=&month=
func (s *Server) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, yerr := strconv.Atoi(q.Get("year"))
	month, merr := strconv.Atoi(q.Get("month"))
	if yerr != nil || merr != nil {
		respondError(w, http.StatusBadRequest, "year and month are required")
		return
	}
	from, to, err := reports.MonthRange(year, month)
	if err != nil {
		respondError(w, http.StatusBadRequest, "month must be between 1 and 12 and year positive")
		return
	}
	items, err := s.Store.ListItems(r.Context(), store.ItemFilter{From: from, To: to})
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, reports.Monthly(items, year, month))
}

package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/reports"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

// lookupRecorder remembers the ids of every GetUsersByIDs call.
type lookupRecorder struct {
	store.Store
	mu      sync.Mutex
	lookups [][]string
}

func (s *lookupRecorder) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	s.mu.Lock()
	s.lookups = append(s.lookups, append([]string(nil), ids...))
	s.mu.Unlock()
	return s.Store.GetUsersByIDs(ctx, ids)
}

func (s *lookupRecorder) reset() {
	s.mu.Lock()
	s.lookups = nil
	s.mu.Unlock()
}

// onlyLookup fails unless exactly one lookup was made, and returns it.
func (s *lookupRecorder) onlyLookup(t *testing.T) []string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lookups) != 1 {
		t.Fatalf("expected 1 user lookup, got %d", len(s.lookups))
	}
	return s.lookups[0]
}

func assertDistinct(t *testing.T, ids []string, want int) {
	t.Helper()
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Errorf("id %q looked up twice in %v", id, ids)
		}
		seen[id] = true
	}
	if len(ids) != want {
		t.Errorf("want %d ids, got %v", want, ids)
	}
}

func TestExpansion_LooksUpEachUserOnce(t *testing.T) {
	srv := newMemoryServer(t)
	rec := &lookupRecorder{Store: srv.Store}
	srv.Store = rec

	adminToken, _ := register(t, srv, "facilities", models.RoleAdmin, "Facilities")
	_, vendor := register(t, srv, "greencycle", models.RoleVendor, "Vendor")
	aToken, amara := register(t, srv, "amara", "", "CS")

	var first models.Item
	for i := 0; i < 5; i++ {
		it := reportItem(t, srv, aToken, itemRequest("PC", models.CategoryComputers, models.TypeRecyclable, "CS", 2))
		if i == 0 {
			first = it
		}
	}
	expect(t, call(t, srv, http.MethodPatch, "/api/ewaste/"+first.ID+"/status", adminToken,
		models.UpdateItemStatusRequest{Status: models.ItemAssessed, Vendor: vendor.ID}), http.StatusOK)

	rec.reset()
	resp := call(t, srv, http.MethodGet, "/api/ewaste", aToken, nil)
	expect(t, resp, http.StatusOK)
	assertDistinct(t, rec.onlyLookup(t), 2)
	for _, it := range decodeAs[[]models.Item](t, resp) {
		if it.Reporter == nil || it.Reporter.Username != "amara" {
			t.Errorf("reporter not expanded: %+v", it.Reporter)
		}
	}

	rec.reset()
	resp = call(t, srv, http.MethodGet, "/api/reports/inventory-audit", adminToken, nil)
	expect(t, resp, http.StatusOK)
	assertDistinct(t, rec.onlyLookup(t), 1)
	if got := decodeAs[reports.AuditReport](t, resp); len(got.TopContributors) != 1 || got.TopContributors[0].UserID != amara.ID {
		t.Errorf("contributors: %+v", got.TopContributors)
	}

	c := createCampaign(t, srv, adminToken, campaignRequest("Drive", nil, 10), models.CampaignActive)
	c2 := createCampaign(t, srv, adminToken, campaignRequest("Workshop", nil, 5), models.CampaignActive)
	for _, id := range []string{c.ID, c2.ID} {
		expect(t, call(t, srv, http.MethodPost, "/api/campaigns/"+id+"/join", aToken, nil), http.StatusOK)
	}

	rec.reset()
	resp = call(t, srv, http.MethodGet, "/api/campaigns", "", nil)
	expect(t, resp, http.StatusOK)
	assertDistinct(t, rec.onlyLookup(t), 2)
}

// Package storetest is a behavioural test suite every store.Store
// implementation runs against itself, so SQLite, MongoDB and the in-memory
// fallback are held to the same rules.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

// Factory returns a fresh, empty store. It should register its own cleanup.
type Factory func(t *testing.T) store.Store

// Run executes the whole suite.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"CreateUserDuplicate", testCreateUserDuplicate},
		{"GetUser", testGetUser},
		{"UpdateProfile", testUpdateProfile},
		{"Leaderboard", testLeaderboard},
		{"SetGreenScore", testSetGreenScore},
		{"ReportItemCreditsReporter", testReportItemCreditsReporter},
		{"ReportItemUnknownReporter", testReportItemUnknownReporter},
		{"ReportItemDuplicateCode", testReportItemDuplicateCode},
		{"ListItemsFilters", testListItemsFilters},
		{"UpdateItemStatus", testUpdateItemStatus},
		{"CampaignLifecycle", testCampaignLifecycle},
		{"JoinRules", testJoinRules},
		{"JoinCapacityConcurrent", testJoinCapacityConcurrent},
		{"LeaveCampaign", testLeaveCampaign},
		{"AwardOnce", testAwardOnce},
		{"ListCampaignsOrder", testListCampaignsOrder},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

// ---- fixtures ----

// NewUser inserts a user with the given department and returns it.
func NewUser(t *testing.T, s store.Store, username, department string) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@campus.test",
		PasswordHash: "hash",
		Role:         models.RoleUser,
		Department:   department,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return u
}

// NewItem builds an unsaved item reported by userID.
func NewItem(userID, department string, weight float64, createdAt time.Time) *models.Item {
	return &models.Item{
		ID:          uuid.NewString(),
		ItemID:      "EW" + uuid.NewString()[:13],
		Name:        "Dell Optiplex",
		Category:    models.CategoryComputers,
		Type:        models.TypeRecyclable,
		Description: "old lab desktop",
		Department:  department,
		ReportedBy:  userID,
		Status:      models.ItemReported,
		Age:         6,
		Weight:      weight,
		Location:    models.Location{Building: "Science", Floor: "2", Room: "204"},
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   createdAt.UTC(),
	}
}

// NewCampaign inserts a campaign in the given status.
func NewCampaign(t *testing.T, s store.Store, creatorID string, status models.CampaignStatus, capacity *int, start time.Time) *models.Campaign {
	t.Helper()
	now := time.Now().UTC()
	c := &models.Campaign{
		ID:              uuid.NewString(),
		Title:           "Battery Drive",
		Description:     "Bring your dead batteries",
		Type:            models.CampaignCollectionDrive,
		StartDate:       start.UTC(),
		EndDate:         start.Add(72 * time.Hour).UTC(),
		TargetAudience:  models.DefaultTargetAudience,
		MaxParticipants: capacity,
		Rewards:         models.Rewards{GreenScorePoints: 25, Certificates: true},
		Status:          status,
		CreatedBy:       creatorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.CreateCampaign(context.Background(), c); err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}
	return c
}

func intPtr(n int) *int { return &n }

func mustUser(t *testing.T, s store.Store, id string) *models.User {
	t.Helper()
	u, err := s.GetUserByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	return u
}

// ---- users ----

func testCreateUserDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(t, s, "alice", "CS")

	sameEmail := *u
	sameEmail.ID, sameEmail.Username = uuid.NewString(), "alice2"
	if err := s.CreateUser(ctx, &sameEmail); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate email: want ErrDuplicate, got %v", err)
	}

	sameName := *u
	sameName.ID, sameName.Email, sameName.Username = uuid.NewString(), "other@campus.test", "ALICE"
	if err := s.CreateUser(ctx, &sameName); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("duplicate username (case-insensitive): want ErrDuplicate, got %v", err)
	}
}

func testGetUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(t, s, "bob", "Physics")

	got, err := s.GetUserByEmail(ctx, "bob@campus.test")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != "hash" {
		t.Errorf("got %+v", got)
	}
	if _, err := s.GetUserByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}

	m, err := s.GetUsersByIDs(ctx, []string{u.ID, "missing"})
	if err != nil {
		t.Fatalf("GetUsersByIDs: %v", err)
	}
	if len(m) != 1 || m[u.ID] == nil {
		t.Errorf("GetUsersByIDs: got %v", m)
	}
}

func testUpdateProfile(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(t, s, "carol", "CS")
	NewUser(t, s, "dave", "CS")

	got, err := s.UpdateProfile(ctx, u.ID, "", "Biology")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if got.Username != "carol" || got.Department != "Biology" {
		t.Errorf("got %s/%s", got.Username, got.Department)
	}
	if _, err := s.UpdateProfile(ctx, u.ID, "dave", ""); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("taken username: want ErrDuplicate, got %v", err)
	}
}

func testLeaderboard(t *testing.T, s store.Store) {
	ctx := context.Background()
	scores := map[string]int{"ann": 30, "ben": 50, "cat": 10, "dan": 50}
	for name, score := range scores {
		dept := "CS"
		if name == "cat" {
			dept = "Math"
		}
		u := NewUser(t, s, name, dept)
		if _, err := s.SetGreenScore(ctx, u.ID, score); err != nil {
			t.Fatalf("SetGreenScore: %v", err)
		}
	}

	top, err := s.Leaderboard(ctx, "", 3)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	want := []string{"ben", "dan", "ann"}
	if len(top) != len(want) {
		t.Fatalf("want %d entries, got %d", len(want), len(top))
	}
	for i, name := range want {
		if top[i].Username != name {
			t.Errorf("rank %d: want %s, got %s", i+1, name, top[i].Username)
		}
	}

	math, err := s.Leaderboard(ctx, "Math", 10)
	if err != nil {
		t.Fatalf("Leaderboard(Math): %v", err)
	}
	if len(math) != 1 || math[0].Username != "cat" {
		t.Errorf("department leaderboard: got %+v", math)
	}

	all, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("ListUsers: want 4, got %d", len(all))
	}
}

func testSetGreenScore(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(t, s, "erin", "CS")
	got, err := s.SetGreenScore(ctx, u.ID, 42)
	if err != nil {
		t.Fatalf("SetGreenScore: %v", err)
	}
	if got.GreenScore != 42 {
		t.Errorf("want 42, got %d", got.GreenScore)
	}
	if _, err := s.SetGreenScore(ctx, "missing", 1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

// ---- items ----

func testReportItemCreditsReporter(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(t, s, "frank", "CS")

	for _, w := range []float64{2.5, 4} {
		if err := s.ReportItem(ctx, NewItem(u.ID, "CS", w, time.Now())); err != nil {
			t.Fatalf("ReportItem: %v", err)
		}
	}
	got := mustUser(t, s, u.ID)
	if got.GreenScore != 2*models.ReportCredit {
		t.Errorf("greenScore: want %d, got %d", 2*models.ReportCredit, got.GreenScore)
	}
	if got.TotalContribution != 6.5 {
		t.Errorf("totalContribution: want 6.5, got %v", got.TotalContribution)
	}
}

func testReportItemUnknownReporter(t *testing.T, s store.Store) {
	ctx := context.Background()
	it := NewItem("ghost", "CS", 1, time.Now())
	if err := s.ReportItem(ctx, it); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := s.GetItem(ctx, it.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("item must not be stored when the credit fails, got %v", err)
	}
}

func testReportItemDuplicateCode(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(t, s, "gina", "CS")
	first := NewItem(u.ID, "CS", 1, time.Now())
	if err := s.ReportItem(ctx, first); err != nil {
		t.Fatalf("ReportItem: %v", err)
	}
	second := NewItem(u.ID, "CS", 1, time.Now())
	second.ItemID = first.ItemID
	if err := s.ReportItem(ctx, second); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
	if got := mustUser(t, s, u.ID); got.GreenScore != models.ReportCredit {
		t.Errorf("failed report must not credit: greenScore %d", got.GreenScore)
	}

	byCode, err := s.GetItemByCode(ctx, first.ItemID)
	if err != nil {
		t.Fatalf("GetItemByCode: %v", err)
	}
	if byCode.ID != first.ID || byCode.Location.Room != "204" {
		t.Errorf("GetItemByCode: got %+v", byCode)
	}
}

func testListItemsFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(t, s, "hank", "CS")
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	old := NewItem(u.ID, "CS", 1, base.AddDate(0, -1, 0))
	mid := NewItem(u.ID, "Math", 1, base)
	mid.Type = models.TypeHazardous
	mid.Category = models.CategoryBatteries
	recent := NewItem(u.ID, "CS", 1, base.AddDate(0, 0, 5))
	for _, it := range []*models.Item{old, mid, recent} {
		if err := s.ReportItem(ctx, it); err != nil {
			t.Fatalf("ReportItem: %v", err)
		}
	}

	all, err := s.ListItems(ctx, store.ItemFilter{})
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(all) != 3 || all[0].ID != recent.ID || all[2].ID != old.ID {
		t.Errorf("want newest first, got %v", ids(all))
	}

	cases := []struct {
		name string
		f    store.ItemFilter
		want int
	}{
		{"department", store.ItemFilter{Department: "CS"}, 2},
		{"category", store.ItemFilter{Category: models.CategoryBatteries}, 1},
		{"type", store.ItemFilter{Type: models.TypeHazardous}, 1},
		{"status", store.ItemFilter{Status: models.ItemCollected}, 0},
		{"range", store.ItemFilter{From: base.AddDate(0, 0, -1), To: base.AddDate(0, 0, 1)}, 1},
		{"open end", store.ItemFilter{From: base}, 2},
	}
	for _, tc := range cases {
		got, err := s.ListItems(ctx, tc.f)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if len(got) != tc.want {
			t.Errorf("%s: want %d, got %d", tc.name, tc.want, len(got))
		}
	}
}

func ids(items []models.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func testUpdateItemStatus(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(t, s, "ivy", "CS")
	vendor := NewUser(t, s, "recycleco", "Vendors")
	it := NewItem(u.ID, "CS", 3, time.Now())
	if err := s.ReportItem(ctx, it); err != nil {
		t.Fatalf("ReportItem: %v", err)
	}

	pickup := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	got, err := s.UpdateItemStatus(ctx, it.ID, models.ItemUpdate{
		Status: models.ItemScheduled, ScheduledPickup: &pickup, Vendor: vendor.ID,
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if got.Status != models.ItemScheduled || got.Vendor != vendor.ID {
		t.Errorf("got %+v", got)
	}
	if got.ScheduledPickup == nil || !got.ScheduledPickup.Equal(pickup) {
		t.Errorf("scheduledPickup: want %v, got %v", pickup, got.ScheduledPickup)
	}

	// Backwards is rejected and leaves the item untouched.
	_, err = s.UpdateItemStatus(ctx, it.ID, models.ItemUpdate{Status: models.ItemReported})
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("backwards: want ErrInvalidTransition, got %v", err)
	}
	stored, _ := s.GetItem(ctx, it.ID)
	if stored.Status != models.ItemScheduled {
		t.Errorf("status changed after rejected transition: %s", stored.Status)
	}

	for _, next := range []models.ItemStatus{models.ItemCollected, models.ItemRecycled} {
		if _, err := s.UpdateItemStatus(ctx, it.ID, models.ItemUpdate{Status: next}); err != nil {
			t.Fatalf("%s: %v", next, err)
		}
	}
	if _, err := s.UpdateItemStatus(ctx, it.ID, models.ItemUpdate{Status: models.ItemDisposed}); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("terminal: want ErrInvalidTransition, got %v", err)
	}
	if _, err := s.UpdateItemStatus(ctx, "missing", models.ItemUpdate{Status: models.ItemAssessed}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing: want ErrNotFound, got %v", err)
	}
}

// ---- campaigns ----

func testCampaignLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	admin := NewUser(t, s, "admin", "Facilities")
	c := NewCampaign(t, s, admin.ID, models.CampaignUpcoming, nil, time.Now().Add(24*time.Hour))

	got, err := s.GetCampaign(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCampaign: %v", err)
	}
	if got.CurrentParticipants != 0 || got.Participants == nil || len(got.TargetAudience) != 3 {
		t.Errorf("fresh campaign: %+v", got)
	}
	if got.MaxParticipants != nil {
		t.Errorf("unlimited campaign got capacity %d", *got.MaxParticipants)
	}

	if _, err := s.SetCampaignStatus(ctx, c.ID, models.CampaignCompleted, time.Now()); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("upcoming → completed: want ErrInvalidTransition, got %v", err)
	}
	for _, next := range []models.CampaignStatus{models.CampaignActive, models.CampaignCompleted} {
		got, err = s.SetCampaignStatus(ctx, c.ID, next, time.Now())
		if err != nil {
			t.Fatalf("→ %s: %v", next, err)
		}
		if got.Status != next {
			t.Errorf("want %s, got %s", next, got.Status)
		}
	}
	if _, err := s.SetCampaignStatus(ctx, c.ID, models.CampaignCancelled, time.Now()); !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("completed → cancelled: want ErrInvalidTransition, got %v", err)
	}
	if _, err := s.GetCampaign(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func testJoinRules(t *testing.T, s store.Store) {
	ctx := context.Background()
	admin := NewUser(t, s, "admin", "Facilities")
	u1 := NewUser(t, s, "jill", "CS")
	u2 := NewUser(t, s, "kurt", "CS")

	upcoming := NewCampaign(t, s, admin.ID, models.CampaignUpcoming, nil, time.Now())
	if _, err := s.JoinCampaign(ctx, upcoming.ID, u1.ID, time.Now()); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("join upcoming: want ErrInvalidState, got %v", err)
	}

	c := NewCampaign(t, s, admin.ID, models.CampaignActive, intPtr(1), time.Now())
	got, err := s.JoinCampaign(ctx, c.ID, u1.ID, time.Now())
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	if got.CurrentParticipants != 1 || got.Participants[0].User != u1.ID {
		t.Errorf("after join: %+v", got.Participants)
	}
	if _, err := s.JoinCampaign(ctx, c.ID, u1.ID, time.Now()); !errors.Is(err, models.ErrAlreadyParticipating) {
		t.Errorf("second join: want ErrAlreadyParticipating, got %v", err)
	}
	if _, err := s.JoinCampaign(ctx, c.ID, u2.ID, time.Now()); !errors.Is(err, models.ErrCampaignFull) {
		t.Errorf("full: want ErrCampaignFull, got %v", err)
	}
	if _, err := s.JoinCampaign(ctx, "missing", u1.ID, time.Now()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing campaign: want ErrNotFound, got %v", err)
	}
}

func testJoinCapacityConcurrent(t *testing.T, s store.Store) {
	ctx := context.Background()
	admin := NewUser(t, s, "admin", "Facilities")
	const capacity, joiners = 3, 10
	c := NewCampaign(t, s, admin.ID, models.CampaignActive, intPtr(capacity), time.Now())

	users := make([]*models.User, joiners)
	for i := range users {
		users[i] = NewUser(t, s, fmt.Sprintf("joiner%02d", i), "CS")
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for _, u := range users {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := s.JoinCampaign(ctx, c.ID, id, time.Now()); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			} else if !errors.Is(err, models.ErrCampaignFull) {
				t.Errorf("join: unexpected error %v", err)
			}
		}(u.ID)
	}
	wg.Wait()

	if ok != capacity {
		t.Errorf("want %d successful joins, got %d", capacity, ok)
	}
	got, err := s.GetCampaign(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCampaign: %v", err)
	}
	if got.CurrentParticipants != capacity || len(got.Participants) != capacity {
		t.Errorf("roster size: want %d, got %d", capacity, got.CurrentParticipants)
	}
}

func testLeaveCampaign(t *testing.T, s store.Store) {
	ctx := context.Background()
	admin := NewUser(t, s, "admin", "Facilities")
	u := NewUser(t, s, "lena", "CS")
	c := NewCampaign(t, s, admin.ID, models.CampaignActive, intPtr(1), time.Now())

	if _, err := s.JoinCampaign(ctx, c.ID, u.ID, time.Now()); err != nil {
		t.Fatalf("join: %v", err)
	}
	got, err := s.LeaveCampaign(ctx, c.ID, u.ID, time.Now())
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if got.CurrentParticipants != 0 {
		t.Errorf("after leave: %d participants", got.CurrentParticipants)
	}
	// Leaving twice is harmless and the freed seat can be taken again.
	if _, err := s.LeaveCampaign(ctx, c.ID, u.ID, time.Now()); err != nil {
		t.Errorf("second leave: %v", err)
	}
	if _, err := s.JoinCampaign(ctx, c.ID, u.ID, time.Now()); err != nil {
		t.Errorf("rejoin: %v", err)
	}
}

func testAwardOnce(t *testing.T, s store.Store) {
	ctx := context.Background()
	admin := NewUser(t, s, "admin", "Facilities")
	u1 := NewUser(t, s, "mona", "CS")
	u2 := NewUser(t, s, "nate", "Math")
	bystander := NewUser(t, s, "olga", "Math")
	c := NewCampaign(t, s, admin.ID, models.CampaignActive, nil, time.Now())

	for _, u := range []*models.User{u1, u2} {
		if _, err := s.JoinCampaign(ctx, c.ID, u.ID, time.Now()); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	if _, err := s.AwardCampaign(ctx, c.ID, time.Now()); !errors.Is(err, models.ErrInvalidState) {
		t.Errorf("award active: want ErrInvalidState, got %v", err)
	}
	if _, err := s.SetCampaignStatus(ctx, c.ID, models.CampaignCompleted, time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}

	res, err := s.AwardCampaign(ctx, c.ID, time.Now())
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if res.Awarded != 2 || res.Points != 25 || res.AlreadyAwarded {
		t.Errorf("first award: %+v", res)
	}

	again, err := s.AwardCampaign(ctx, c.ID, time.Now())
	if err != nil {
		t.Fatalf("second award: %v", err)
	}
	if !again.AlreadyAwarded || again.Awarded != 0 {
		t.Errorf("second award: %+v", again)
	}

	for _, u := range []*models.User{u1, u2} {
		if got := mustUser(t, s, u.ID).GreenScore; got != 25 {
			t.Errorf("%s: want 25, got %d", u.Username, got)
		}
	}
	if got := mustUser(t, s, bystander.ID).GreenScore; got != 0 {
		t.Errorf("non-participant credited: %d", got)
	}
	stored, _ := s.GetCampaign(ctx, c.ID)
	if stored.AwardedAt == nil {
		t.Error("awardedAt not persisted")
	}
}

func testListCampaignsOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	admin := NewUser(t, s, "admin", "Facilities")
	now := time.Now().UTC()
	later := NewCampaign(t, s, admin.ID, models.CampaignUpcoming, nil, now.Add(72*time.Hour))
	sooner := NewCampaign(t, s, admin.ID, models.CampaignActive, nil, now.Add(time.Hour))

	all, err := s.ListCampaigns(ctx, store.CampaignFilter{})
	if err != nil {
		t.Fatalf("ListCampaigns: %v", err)
	}
	if len(all) != 2 || all[0].ID != sooner.ID || all[1].ID != later.ID {
		t.Errorf("want earliest start first, got %+v", all)
	}

	active, err := s.ListCampaigns(ctx, store.CampaignFilter{Status: models.CampaignActive})
	if err != nil {
		t.Fatalf("ListCampaigns(active): %v", err)
	}
	if len(active) != 1 || active[0].ID != sooner.ID {
		t.Errorf("status filter: got %d", len(active))
	}
	workshops, _ := s.ListCampaigns(ctx, store.CampaignFilter{Type: models.CampaignWorkshop})
	if len(workshops) != 0 {
		t.Errorf("type filter: want 0, got %d", len(workshops))
	}
}

package reports

import (
	"errors"
	"testing"
	"time"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
)

var t0 = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func item(dept string, cat models.ItemCategory, typ models.ItemType, st models.ItemStatus, weight float64, age int) models.Item {
	return models.Item{
		Department: dept, Category: cat, Type: typ, Status: st,
		Weight: weight, Age: age, ReportedBy: "u-" + dept, CreatedAt: t0,
	}
}

func TestItemStats(t *testing.T) {
	items := []models.Item{
		item("CS", models.CategoryComputers, models.TypeRecyclable, models.ItemRecycled, 5, 1),
		item("CS", models.CategoryBatteries, models.TypeHazardous, models.ItemReported, 1, 1),
		item("Math", models.CategoryComputers, models.TypeReusable, models.ItemReported, 2, 1),
	}
	got := ItemStats(items)
	want := ItemOverview{TotalItems: 3, TotalWeight: 8, RecyclableItems: 1, ReusableItems: 1, HazardousItems: 1, RecycledItems: 1}
	if got.Overview != want {
		t.Errorf("overview: got %+v, want %+v", got.Overview, want)
	}
	if len(got.DepartmentStats) != 2 || got.DepartmentStats[0] != (Group{ID: "CS", Count: 2, Weight: 6}) {
		t.Errorf("departmentStats: %+v", got.DepartmentStats)
	}
	// computers 2, batteries 1
	if got.CategoryStats[0].ID != "computers" || got.CategoryStats[1].ID != "batteries" {
		t.Errorf("categoryStats: %+v", got.CategoryStats)
	}
}

func TestItemStatsEmpty(t *testing.T) {
	got := ItemStats(nil)
	if got.Overview != (ItemOverview{}) || got.DepartmentStats == nil || len(got.CategoryStats) != 0 {
		t.Errorf("got %+v", got)
	}
}

func TestCampaignStats(t *testing.T) {
	now := t0
	p := func(n int) []models.Participant { return make([]models.Participant, n) }
	cs := []models.Campaign{
		{Type: models.CampaignWorkshop, Status: models.CampaignActive, Participants: p(3), StartDate: now.Add(-time.Hour)},
		{Type: models.CampaignWorkshop, Status: models.CampaignCompleted, Participants: p(2), StartDate: now.Add(-48 * time.Hour)},
		{Title: "later", Type: models.CampaignEducation, Status: models.CampaignUpcoming, StartDate: now.Add(72 * time.Hour)},
		{Title: "sooner", Type: models.CampaignEducation, Status: models.CampaignUpcoming, StartDate: now.Add(24 * time.Hour)},
		{Title: "stale", Type: models.CampaignChallenge, Status: models.CampaignUpcoming, StartDate: now.Add(-24 * time.Hour)},
	}
	got := CampaignStats(cs, now)
	want := CampaignOverview{TotalCampaigns: 5, ActiveCampaigns: 1, CompletedCampaigns: 1, TotalParticipants: 5}
	if got.Overview != want {
		t.Errorf("overview: got %+v", got.Overview)
	}
	if got.TypeStats[0] != (TypeGroup{ID: "education", Count: 2}) || got.TypeStats[1] != (TypeGroup{ID: "workshop", Count: 2, Participants: 5}) {
		t.Errorf("typeStats: %+v", got.TypeStats)
	}
	if len(got.UpcomingCampaigns) != 2 || got.UpcomingCampaigns[0].Title != "sooner" {
		t.Errorf("upcoming: %+v", got.UpcomingCampaigns)
	}
}

func TestCampaignStatsCapsUpcoming(t *testing.T) {
	var cs []models.Campaign
	for i := 0; i < MaxUpcoming+3; i++ {
		cs = append(cs, models.Campaign{Status: models.CampaignUpcoming, StartDate: t0.Add(time.Duration(i+1) * time.Hour)})
	}
	if got := CampaignStats(cs, t0); len(got.UpcomingCampaigns) != MaxUpcoming {
		t.Errorf("want %d upcoming, got %d", MaxUpcoming, len(got.UpcomingCampaigns))
	}
}

func TestUserStats(t *testing.T) {
	users := []models.User{
		{Department: "CS", GreenScore: 10, TotalContribution: 1},
		{Department: "CS", GreenScore: 30, TotalContribution: 2},
		{Department: "Math", GreenScore: 40, TotalContribution: 4},
	}
	got := UserStats(users)
	if got.Overview.TotalUsers != 3 || got.Overview.TotalGreenScore != 80 || got.Overview.TotalContribution != 7 {
		t.Errorf("overview: %+v", got.Overview)
	}
	if got.DepartmentStats[0].ID != "Math" || got.DepartmentStats[1].AvgGreenScore != 20 {
		t.Errorf("departmentStats: %+v", got.DepartmentStats)
	}
	if empty := UserStats(nil); empty.Overview.AvgGreenScore != 0 {
		t.Errorf("empty avg: %v", empty.Overview.AvgGreenScore)
	}
}

func TestParseRange(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
		wantErr    bool
		from, to   time.Time
	}{
		{name: "neither"},
		{name: "start only", start: "2024-01-01", wantErr: true},
		{name: "end only", end: "2024-01-01", wantErr: true},
		{name: "garbage", start: "yesterday", end: "2024-01-01", wantErr: true},
		{name: "reversed", start: "2024-02-01", end: "2024-01-01", wantErr: true},
		{
			name: "dates", start: "2024-01-01", end: "2024-01-31",
			from: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name: "rfc3339", start: "2024-01-01T08:00:00Z", end: "2024-01-02T08:00:00+02:00",
			from: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			from, to, err := ParseRange(tc.start, tc.end)
			if tc.wantErr {
				if !errors.Is(err, ErrBadPeriod) {
					t.Fatalf("want ErrBadPeriod, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRange: %v", err)
			}
			if !from.Equal(tc.from) || !to.Equal(tc.to) {
				t.Errorf("got %s..%s, want %s..%s", from, to, tc.from, tc.to)
			}
		})
	}
}

func TestComplianceEmptyScoresZero(t *testing.T) {
	r := Compliance(nil, Period{})
	if r.ComplianceScore != 0 || r.TotalItems != 0 {
		t.Errorf("got %+v", r)
	}
	if r.CategoryBreakdown == nil || r.StatusBreakdown == nil {
		t.Error("breakdowns must be non-nil maps")
	}
}

func TestCompliance(t *testing.T) {
	items := []models.Item{
		item("CS", models.CategoryComputers, models.TypeRecyclable, models.ItemRecycled, 4, 1),
		item("CS", models.CategoryComputers, models.TypeRecyclable, models.ItemRecycled, 2, 1),
		item("Math", models.CategoryBatteries, models.TypeHazardous, models.ItemCollected, 1, 1),
	}
	items[0].EnvironmentalImpact = &models.EnvironmentalImpact{CO2Saved: 3, LandfillWasteReduced: 4}
	items[1].EnvironmentalImpact = &models.EnvironmentalImpact{CO2Saved: 1.5, LandfillWasteReduced: 2}

	r := Compliance(items, Period{StartDate: "2024-01-01", EndDate: "2024-12-31"})
	if r.ComplianceScore != 67 {
		t.Errorf("score: want 67, got %d", r.ComplianceScore)
	}
	if r.TotalWeight != 7 || r.Period.StartDate != "2024-01-01" {
		t.Errorf("got %+v", r)
	}
	if r.CategoryBreakdown["computers"] != (Breakdown{Count: 2, Weight: 6}) {
		t.Errorf("category: %+v", r.CategoryBreakdown)
	}
	if r.StatusBreakdown["collected"].Count != 1 || r.DepartmentBreakdown["Math"].Weight != 1 {
		t.Errorf("breakdowns: %+v %+v", r.StatusBreakdown, r.DepartmentBreakdown)
	}
	if r.EnvironmentalImpact != (models.EnvironmentalImpact{CO2Saved: 4.5, LandfillWasteReduced: 6}) {
		t.Errorf("impact: %+v", r.EnvironmentalImpact)
	}
}

func TestAgeBucket(t *testing.T) {
	cases := map[int]string{0: Age0to2, 2: Age0to2, 3: Age3to5, 5: Age3to5, 6: Age6to8, 8: Age6to8, 9: Age9up, 30: Age9up}
	for age, want := range cases {
		if got := ageBucket(age); got != want {
			t.Errorf("age %d: got %q, want %q", age, got, want)
		}
	}
}

func TestInventoryAudit(t *testing.T) {
	items := []models.Item{
		item("CS", models.CategoryComputers, models.TypeHazardous, models.ItemReported, 2, 10),
		item("CS", models.CategoryComputers, models.TypeRecyclable, models.ItemReported, 3, 1),
		item("Math", models.CategoryComputers, models.TypeRecyclable, models.ItemAssessed, 1, 4),
	}
	users := map[string]*models.User{"u-CS": {ID: "u-CS", Username: "ada", Department: "CS"}}

	r := InventoryAudit(items, users)
	if r.TotalItems != 3 || r.ItemsByAge[Age9up] != 1 || r.ItemsByAge[Age6to8] != 0 {
		t.Errorf("ages: %+v", r.ItemsByAge)
	}
	if _, ok := r.ItemsByStatus["disposed"]; !ok {
		t.Error("every status key must be present")
	}
	if r.ItemsByType["reusable"] != 0 || r.ItemsByType["recyclable"] != 2 {
		t.Errorf("types: %+v", r.ItemsByType)
	}
	top := r.TopContributors
	if len(top) != 2 || top[0] != (Contributor{UserID: "u-CS", Username: "ada", Department: "CS", Count: 2, Weight: 5}) {
		t.Errorf("top: %+v", top)
	}
	if top[1].Username != "" {
		t.Errorf("unknown reporter should have no name: %+v", top[1])
	}
	// 1 of 3 is over 30%.
	want := []string{RecommendAssessment, RecommendOldItems, RecommendHazardous}
	if len(r.Recommendations) != len(want) {
		t.Fatalf("recommendations: %v", r.Recommendations)
	}
	for i := range want {
		if r.Recommendations[i] != want[i] {
			t.Errorf("recommendation %d: %q", i, r.Recommendations[i])
		}
	}
}

func TestInventoryAuditCapsContributors(t *testing.T) {
	var items []models.Item
	for i := 0; i < MaxContributors+5; i++ {
		it := item("CS", models.CategoryOther, models.TypeReusable, models.ItemAssessed, 1, 1)
		it.ReportedBy = string(rune('a' + i))
		items = append(items, it)
	}
	r := InventoryAudit(items, nil)
	if len(r.TopContributors) != MaxContributors {
		t.Errorf("want %d contributors, got %d", MaxContributors, len(r.TopContributors))
	}
	if len(r.Recommendations) != 0 {
		t.Errorf("want no recommendations, got %v", r.Recommendations)
	}
}

func TestTraceability(t *testing.T) {
	pickup := t0.Add(48 * time.Hour)
	it := &models.Item{
		ItemID: "EW-1-ABCDE", Name: "Old PC", Status: models.ItemScheduled,
		CreatedAt: t0, UpdatedAt: t0.Add(time.Hour),
		ScheduledPickup: &pickup,
		Vendor:          "v1",
		Reporter:        &models.UserSummary{Username: "ada", Department: "CS"},
		VendorUser:      &models.UserSummary{Username: "greenco"},
	}
	r := Traceability(it)
	if len(r.Timeline) != 4 {
		t.Fatalf("timeline: %+v", r.Timeline)
	}
	wantActions := []string{"Item reported", "Status updated to scheduled", "Vendor assigned", "Pickup scheduled"}
	for i, a := range wantActions {
		if r.Timeline[i].Action != a {
			t.Errorf("entry %d: got %q, want %q", i, r.Timeline[i].Action, a)
		}
	}
	if r.Timeline[0].User != "ada" || r.Timeline[2].User != "greenco" || r.Timeline[2].Department != "Vendor" {
		t.Errorf("users: %+v", r.Timeline)
	}
	if r.CurrentStatus != models.ItemScheduled || r.ItemID != "EW-1-ABCDE" {
		t.Errorf("got %+v", r)
	}
}

func TestTraceabilityFreshItem(t *testing.T) {
	r := Traceability(&models.Item{Status: models.ItemReported, CreatedAt: t0})
	if len(r.Timeline) != 1 || r.Timeline[0].User != "unknown" {
		t.Errorf("timeline: %+v", r.Timeline)
	}
}

func TestMonthRange(t *testing.T) {
	from, to, err := MonthRange(2024, 2)
	if err != nil {
		t.Fatal(err)
	}
	if from.Day() != 1 || to.Day() != 29 || to.Month() != time.February {
		t.Errorf("got %s..%s", from, to)
	}
	for _, m := range []int{0, 13} {
		if _, _, err := MonthRange(2024, m); !errors.Is(err, ErrBadPeriod) {
			t.Errorf("month %d: want ErrBadPeriod, got %v", m, err)
		}
	}
}

func TestMonthly(t *testing.T) {
	a := item("CS", models.CategoryComputers, models.TypeRecyclable, models.ItemReported, 2, 1)
	a.CreatedAt = time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	b := item("CS", models.CategoryComputers, models.TypeRecyclable, models.ItemReported, 3, 1)
	b.CreatedAt = time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC)
	c := item("Math", models.CategoryBatteries, models.TypeHazardous, models.ItemReported, 1, 1)
	c.CreatedAt = time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)
	outside := item("Math", models.CategoryBatteries, models.TypeHazardous, models.ItemReported, 9, 1)
	outside.CreatedAt = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	s := Monthly([]models.Item{a, b, c, outside}, 2024, 3)
	if s.TotalItems != 3 || s.TotalWeight != 6 {
		t.Errorf("totals: %d %v", s.TotalItems, s.TotalWeight)
	}
	if s.DailyBreakdown[5] != (Breakdown{Count: 2, Weight: 5}) || s.DailyBreakdown[31].Count != 1 {
		t.Errorf("daily: %+v", s.DailyBreakdown)
	}
	if s.Period != (MonthPeriod{Year: 2024, Month: 3}) || s.CategoryBreakdown["batteries"].Weight != 1 {
		t.Errorf("got %+v", s)
	}
}

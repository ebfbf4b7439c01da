package reports

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
)

// ErrBadPeriod is returned for unusable report date parameters.
var ErrBadPeriod = errors.New("invalid report period")

// Breakdown is a count/weight pair keyed by category, department, status
// or day in the report maps.
type Breakdown struct {
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
}

func add(m map[string]Breakdown, key string, weight float64) {
	b := m[key]
	b.Count++
	b.Weight += weight
	m[key] = b
}

func impactOf(items []models.Item) models.EnvironmentalImpact {
	var ei models.EnvironmentalImpact
	for _, it := range items {
		if it.EnvironmentalImpact != nil {
			ei.CO2Saved += it.EnvironmentalImpact.CO2Saved
			ei.LandfillWasteReduced += it.EnvironmentalImpact.LandfillWasteReduced
		}
	}
	return ei
}

func totalWeight(items []models.Item) float64 {
	var w float64
	for _, it := range items {
		w += it.Weight
	}
	return w
}

// ---- compliance ----

const dateOnly = "2006-01-02"

// ParseRange reads the compliance period. Both bounds or neither must be
// given. Each accepts RFC 3339 or YYYY-MM-DD; a date-only end bound covers
// that whole day.
func ParseRange(start, end string) (from, to time.Time, err error) {
	if start == "" && end == "" {
		return time.Time{}, time.Time{}, nil
	}
	if start == "" || end == "" {
		return from, to, fmt.Errorf("%w: startDate and endDate must be given together", ErrBadPeriod)
	}
	from, _, err = parseDate(start)
	if err != nil {
		return from, to, err
	}
	to, dayOnly, err := parseDate(end)
	if err != nil {
		return from, to, err
	}
	if dayOnly {
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("%w: endDate is before startDate", ErrBadPeriod)
	}
	return from, to, nil
}

func parseDate(s string) (t time.Time, dayOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	if t, err = time.Parse(dateOnly, s); err == nil {
		return t, true, nil
	}
	return t, false, fmt.Errorf("%w: %q is not RFC 3339 or YYYY-MM-DD", ErrBadPeriod, s)
}

type Period struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

type ComplianceReport struct {
	Period              Period                     `json:"period"`
	TotalItems          int                        `json:"totalItems"`
	TotalWeight         float64                    `json:"totalWeight"`
	CategoryBreakdown   map[string]Breakdown       `json:"categoryBreakdown"`
	DepartmentBreakdown map[string]Breakdown       `json:"departmentBreakdown"`
	StatusBreakdown     map[string]Breakdown       `json:"statusBreakdown"`
	EnvironmentalImpact models.EnvironmentalImpact `json:"environmentalImpact"`
	ComplianceScore     int                        `json:"complianceScore"`
}

// Compliance reports on items already filtered to the period. The score is
// the rounded percentage of recycled items, and 0 when there are none.
func Compliance(items []models.Item, period Period) ComplianceReport {
	r := ComplianceReport{
		Period:              period,
		TotalItems:          len(items),
		TotalWeight:         totalWeight(items),
		CategoryBreakdown:   map[string]Breakdown{},
		DepartmentBreakdown: map[string]Breakdown{},
		StatusBreakdown:     map[string]Breakdown{},
		EnvironmentalImpact: impactOf(items),
	}
	recycled := 0
	for _, it := range items {
		add(r.CategoryBreakdown, string(it.Category), it.Weight)
		add(r.DepartmentBreakdown, it.Department, it.Weight)
		add(r.StatusBreakdown, string(it.Status), it.Weight)
		if it.Status == models.ItemRecycled {
			recycled++
		}
	}
	if len(items) > 0 {
		r.ComplianceScore = int(math.Round(float64(recycled) / float64(len(items)) * 100))
	}
	return r
}

// ---- inventory audit ----

// Age buckets, in years.
const (
	Age0to2 = "0-2 years"
	Age3to5 = "3-5 years"
	Age6to8 = "6-8 years"
	Age9up  = "9+ years"
)

// Recommendations emitted by InventoryAudit.
const (
	RecommendAssessment = "Increase assessment capacity to reduce backlog"
	RecommendOldItems   = "Prioritize disposal of items older than 9 years"
	RecommendHazardous  = "Ensure proper handling of hazardous materials"
)

// MaxContributors caps the top-contributor list.
const MaxContributors = 10

func ageBucket(age int) string {
	switch {
	case age <= 2:
		return Age0to2
	case age <= 5:
		return Age3to5
	case age <= 8:
		return Age6to8
	}
	return Age9up
}

type Contributor struct {
	UserID     string  `json:"userId"`
	Username   string  `json:"username"`
	Department string  `json:"department"`
	Count      int     `json:"count"`
	Weight     float64 `json:"weight"`
}

type AuditReport struct {
	TotalItems      int            `json:"totalItems"`
	ItemsByAge      map[string]int `json:"itemsByAge"`
	ItemsByType     map[string]int `json:"itemsByType"`
	ItemsByStatus   map[string]int `json:"itemsByStatus"`
	TopContributors []Contributor  `json:"topContributors"`
	Recommendations []string       `json:"recommendations"`
}

// InventoryAudit breaks all items down by age, type and status and ranks
// reporters by item count. users resolves reporter ids to names; unknown
// reporters are listed by id alone.
func InventoryAudit(items []models.Item, users map[string]*models.User) AuditReport {
	r := AuditReport{
		TotalItems:      len(items),
		ItemsByAge:      map[string]int{Age0to2: 0, Age3to5: 0, Age6to8: 0, Age9up: 0},
		ItemsByType:     map[string]int{},
		ItemsByStatus:   map[string]int{},
		TopContributors: []Contributor{},
		Recommendations: []string{},
	}
	for _, t := range models.ItemTypes {
		r.ItemsByType[string(t)] = 0
	}
	for _, s := range models.ItemStatuses {
		r.ItemsByStatus[string(s)] = 0
	}

	idx := make(map[string]int)
	for _, it := range items {
		r.ItemsByAge[ageBucket(it.Age)]++
		r.ItemsByType[string(it.Type)]++
		r.ItemsByStatus[string(it.Status)]++

		i, ok := idx[it.ReportedBy]
		if !ok {
			i = len(r.TopContributors)
			idx[it.ReportedBy] = i
			c := Contributor{UserID: it.ReportedBy}
			if u := users[it.ReportedBy]; u != nil {
				c.Username, c.Department = u.Username, u.Department
			}
			r.TopContributors = append(r.TopContributors, c)
		}
		r.TopContributors[i].Count++
		r.TopContributors[i].Weight += it.Weight
	}

	sort.SliceStable(r.TopContributors, func(i, j int) bool {
		return r.TopContributors[i].Count > r.TopContributors[j].Count
	})
	if len(r.TopContributors) > MaxContributors {
		r.TopContributors = r.TopContributors[:MaxContributors]
	}

	if r.ItemsByStatus[string(models.ItemReported)] > r.ItemsByStatus[string(models.ItemAssessed)] {
		r.Recommendations = append(r.Recommendations, RecommendAssessment)
	}
	if float64(r.ItemsByAge[Age9up]) > float64(r.TotalItems)*0.3 {
		r.Recommendations = append(r.Recommendations, RecommendOldItems)
	}
	if r.ItemsByType[string(models.TypeHazardous)] > 0 {
		r.Recommendations = append(r.Recommendations, RecommendHazardous)
	}
	return r
}

// ---- traceability ----

type TimelineEntry struct {
	Date       time.Time         `json:"date"`
	Action     string            `json:"action"`
	User       string            `json:"user"`
	Department string            `json:"department"`
	Status     models.ItemStatus `json:"status"`
}

type TraceabilityReport struct {
	ItemID              string                      `json:"itemId"`
	Name                string                      `json:"name"`
	Category            models.ItemCategory         `json:"category"`
	Type                models.ItemType             `json:"type"`
	Timeline            []TimelineEntry             `json:"timeline"`
	CurrentStatus       models.ItemStatus           `json:"currentStatus"`
	Location            models.Location             `json:"location"`
	EnvironmentalImpact *models.EnvironmentalImpact `json:"environmentalImpact,omitempty"`
	QRCode              string                      `json:"qrCode"`
}

// Traceability reconstructs an item's history from its current fields.
// Status changes are not journaled, so the timeline holds at most one
// entry each for reporting, the current status, pickup and vendor
// assignment. it.Reporter and it.VendorUser should be expanded.
func Traceability(it *models.Item) TraceabilityReport {
	reporter, dept := "unknown", "N/A"
	if it.Reporter != nil {
		reporter, dept = it.Reporter.Username, it.Reporter.Department
	}
	timeline := []TimelineEntry{{
		Date:       it.CreatedAt,
		Action:     "Item reported",
		User:       reporter,
		Department: dept,
		Status:     models.ItemReported,
	}}
	if it.Status != models.ItemReported {
		timeline = append(timeline, TimelineEntry{
			Date:       it.UpdatedAt,
			Action:     "Status updated to " + string(it.Status),
			User:       "System",
			Department: "N/A",
			Status:     it.Status,
		})
	}
	if it.ScheduledPickup != nil {
		timeline = append(timeline, TimelineEntry{
			Date:       *it.ScheduledPickup,
			Action:     "Pickup scheduled",
			User:       "Admin",
			Department: "N/A",
			Status:     models.ItemScheduled,
		})
	}
	if it.Vendor != "" {
		vendor := it.Vendor
		if it.VendorUser != nil {
			vendor = it.VendorUser.Username
		}
		timeline = append(timeline, TimelineEntry{
			Date:       it.UpdatedAt,
			Action:     "Vendor assigned",
			User:       vendor,
			Department: "Vendor",
			Status:     it.Status,
		})
	}
	sort.SliceStable(timeline, func(i, j int) bool { return timeline[i].Date.Before(timeline[j].Date) })

	return TraceabilityReport{
		ItemID:              it.ItemID,
		Name:                it.Name,
		Category:            it.Category,
		Type:                it.Type,
		Timeline:            timeline,
		CurrentStatus:       it.Status,
		Location:            it.Location,
		EnvironmentalImpact: it.EnvironmentalImpact,
		QRCode:              it.QRCode,
	}
}

// ---- monthly summary ----

type MonthPeriod struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type MonthlySummary struct {
	Period              MonthPeriod                `json:"period"`
	TotalItems          int                        `json:"totalItems"`
	TotalWeight         float64                    `json:"totalWeight"`
	DailyBreakdown      map[int]Breakdown          `json:"dailyBreakdown"`
	CategoryBreakdown   map[string]Breakdown       `json:"categoryBreakdown"`
	DepartmentBreakdown map[string]Breakdown       `json:"departmentBreakdown"`
	EnvironmentalImpact models.EnvironmentalImpact `json:"environmentalImpact"`
}

// MonthRange returns the first and last instant of the month in UTC.
func MonthRange(year, month int) (from, to time.Time, err error) {
	if year < 1 || month < 1 || month > 12 {
		return from, to, fmt.Errorf("%w: year %d month %d", ErrBadPeriod, year, month)
	}
	from = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0).Add(-time.Nanosecond), nil
}

// Monthly summarises items created in the given month. Items outside the
// month are ignored, so callers may pass a wider list.
func Monthly(items []models.Item, year, month int) MonthlySummary {
	s := MonthlySummary{
		Period:              MonthPeriod{Year: year, Month: month},
		DailyBreakdown:      map[int]Breakdown{},
		CategoryBreakdown:   map[string]Breakdown{},
		DepartmentBreakdown: map[string]Breakdown{},
	}
	from, to, err := MonthRange(year, month)
	if err != nil {
		return s
	}

	in := make([]models.Item, 0, len(items))
	for _, it := range items {
		c := it.CreatedAt.UTC()
		if c.Before(from) || c.After(to) {
			continue
		}
		in = append(in, it)

		d := s.DailyBreakdown[c.Day()]
		d.Count++
		d.Weight += it.Weight
		s.DailyBreakdown[c.Day()] = d
		add(s.CategoryBreakdown, string(it.Category), it.Weight)
		add(s.DepartmentBreakdown, it.Department, it.Weight)
	}
	s.TotalItems = len(in)
	s.TotalWeight = totalWeight(in)
	s.EnvironmentalImpact = impactOf(in)
	return s
}

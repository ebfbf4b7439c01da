// Package reports turns lists of items, campaigns and users into the
// overview statistics and administrative reports served under /api.
//
// Everything here is a pure function over slices the handlers fetched from
// the store. No backend has to implement aggregation, and every report can
// be tested with literal inputs.
package reports

import (
	"sort"
	"time"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
)

// Group is one row of a grouped count, keyed by _id as the client expects.
type Group struct {
	ID     string  `json:"_id"`
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
}

// sortGroups orders by count desc, then key asc for a stable output.
func sortGroups(gs []Group) {
	sort.Slice(gs, func(i, j int) bool {
		if gs[i].Count != gs[j].Count {
			return gs[i].Count > gs[j].Count
		}
		return gs[i].ID < gs[j].ID
	})
}

func groupItems(items []models.Item, key func(*models.Item) string) []Group {
	idx := make(map[string]int)
	out := []Group{}
	for i := range items {
		k := key(&items[i])
		n, ok := idx[k]
		if !ok {
			n = len(out)
			idx[k] = n
			out = append(out, Group{ID: k})
		}
		out[n].Count++
		out[n].Weight += items[i].Weight
	}
	sortGroups(out)
	return out
}

// ---- e-waste ----

type ItemOverview struct {
	TotalItems      int     `json:"totalItems"`
	TotalWeight     float64 `json:"totalWeight"`
	RecyclableItems int     `json:"recyclableItems"`
	ReusableItems   int     `json:"reusableItems"`
	HazardousItems  int     `json:"hazardousItems"`
	RecycledItems   int     `json:"recycledItems"`
}

type ItemStatsResult struct {
	Overview        ItemOverview `json:"overview"`
	DepartmentStats []Group      `json:"departmentStats"`
	CategoryStats   []Group      `json:"categoryStats"`
}

// ItemStats summarises every reported item.
func ItemStats(items []models.Item) ItemStatsResult {
	var ov ItemOverview
	for _, it := range items {
		ov.TotalItems++
		ov.TotalWeight += it.Weight
		switch it.Type {
		case models.TypeRecyclable:
			ov.RecyclableItems++
		case models.TypeReusable:
			ov.ReusableItems++
		case models.TypeHazardous:
			ov.HazardousItems++
		}
		if it.Status == models.ItemRecycled {
			ov.RecycledItems++
		}
	}
	return ItemStatsResult{
		Overview:        ov,
		DepartmentStats: groupItems(items, func(it *models.Item) string { return it.Department }),
		CategoryStats:   groupItems(items, func(it *models.Item) string { return string(it.Category) }),
	}
}

// ---- campaigns ----

type CampaignOverview struct {
	TotalCampaigns     int `json:"totalCampaigns"`
	ActiveCampaigns    int `json:"activeCampaigns"`
	CompletedCampaigns int `json:"completedCampaigns"`
	TotalParticipants  int `json:"totalParticipants"`
}

type TypeGroup struct {
	ID           string `json:"_id"`
	Count        int    `json:"count"`
	Participants int    `json:"participants"`
}

type CampaignStatsResult struct {
	Overview          CampaignOverview  `json:"overview"`
	TypeStats         []TypeGroup       `json:"typeStats"`
	UpcomingCampaigns []models.Campaign `json:"upcomingCampaigns"`
}

// MaxUpcoming caps the upcoming list in CampaignStats.
const MaxUpcoming = 5

// CampaignStats summarises campaigns. Upcoming campaigns are those with
// status upcoming that start at or after now, soonest first.
func CampaignStats(cs []models.Campaign, now time.Time) CampaignStatsResult {
	res := CampaignStatsResult{TypeStats: []TypeGroup{}, UpcomingCampaigns: []models.Campaign{}}
	idx := make(map[models.CampaignType]int)

	for _, c := range cs {
		n := len(c.Participants)
		res.Overview.TotalCampaigns++
		res.Overview.TotalParticipants += n
		switch c.Status {
		case models.CampaignActive:
			res.Overview.ActiveCampaigns++
		case models.CampaignCompleted:
			res.Overview.CompletedCampaigns++
		}

		i, ok := idx[c.Type]
		if !ok {
			i = len(res.TypeStats)
			idx[c.Type] = i
			res.TypeStats = append(res.TypeStats, TypeGroup{ID: string(c.Type)})
		}
		res.TypeStats[i].Count++
		res.TypeStats[i].Participants += n

		if c.Status == models.CampaignUpcoming && !c.StartDate.Before(now) {
			res.UpcomingCampaigns = append(res.UpcomingCampaigns, c)
		}
	}

	sort.Slice(res.TypeStats, func(i, j int) bool {
		if res.TypeStats[i].Count != res.TypeStats[j].Count {
			return res.TypeStats[i].Count > res.TypeStats[j].Count
		}
		return res.TypeStats[i].ID < res.TypeStats[j].ID
	})
	sort.SliceStable(res.UpcomingCampaigns, func(i, j int) bool {
		return res.UpcomingCampaigns[i].StartDate.Before(res.UpcomingCampaigns[j].StartDate)
	})
	if len(res.UpcomingCampaigns) > MaxUpcoming {
		res.UpcomingCampaigns = res.UpcomingCampaigns[:MaxUpcoming]
	}
	return res
}

// ---- users ----

type UserOverview struct {
	TotalUsers        int     `json:"totalUsers"`
	TotalGreenScore   int     `json:"totalGreenScore"`
	TotalContribution float64 `json:"totalContribution"`
	AvgGreenScore     float64 `json:"avgGreenScore"`
}

type DepartmentGroup struct {
	ID                string  `json:"_id"`
	UserCount         int     `json:"userCount"`
	AvgGreenScore     float64 `json:"avgGreenScore"`
	TotalContribution float64 `json:"totalContribution"`
}

type UserStatsResult struct {
	Overview        UserOverview      `json:"overview"`
	DepartmentStats []DepartmentGroup `json:"departmentStats"`
}

// UserStats summarises all users, departments ordered by average score.
func UserStats(users []models.User) UserStatsResult {
	res := UserStatsResult{DepartmentStats: []DepartmentGroup{}}
	idx := make(map[string]int)
	scores := []int{}

	for _, u := range users {
		res.Overview.TotalUsers++
		res.Overview.TotalGreenScore += u.GreenScore
		res.Overview.TotalContribution += u.TotalContribution

		i, ok := idx[u.Department]
		if !ok {
			i = len(res.DepartmentStats)
			idx[u.Department] = i
			res.DepartmentStats = append(res.DepartmentStats, DepartmentGroup{ID: u.Department})
			scores = append(scores, 0)
		}
		res.DepartmentStats[i].UserCount++
		res.DepartmentStats[i].TotalContribution += u.TotalContribution
		scores[i] += u.GreenScore
	}

	if res.Overview.TotalUsers > 0 {
		res.Overview.AvgGreenScore = float64(res.Overview.TotalGreenScore) / float64(res.Overview.TotalUsers)
	}
	for i := range res.DepartmentStats {
		d := &res.DepartmentStats[i]
		d.AvgGreenScore = float64(scores[i]) / float64(d.UserCount)
	}
	sort.Slice(res.DepartmentStats, func(i, j int) bool {
		a, b := res.DepartmentStats[i], res.DepartmentStats[j]
		if a.AvgGreenScore != b.AvgGreenScore {
			return a.AvgGreenScore > b.AvgGreenScore
		}
		return a.ID < b.ID
	})
	return res
}

package handlers

// SeedDemo handles POST /api/admin/seed
//
// This endpoint is ONLY for demos. It is registered when SEED_ENABLED=true
// and loads a fixed set of users, reported items and campaigns so a demo
// can start from a known, populated state.
//
// The endpoint is idempotent: every record has a pre-determined id and is
// only created when that id is not in the store yet. Everything goes
// through store.Store, so the seed works the same on every backend, and
// reporters earn their green score the normal way.
//
// DEMO SCENARIO
// ─────────────────────────────────────────────────────────────────────────
// Admin   : "facilities"  (admin@campus.test  / demo1234)
// Vendor  : "greencycle"  (vendor@campus.test / demo1234)
// Users   : "amara"  Computer Science  → veteran reporter, 4 items
//           "baraka" Physics           → 2 items, one of them hazardous
//           "chebet" Library           → fresh account, no items yet
//
// Campaigns (created by the admin):
//   1. Spring Battery Drive   completed, amara + baraka joined, not awarded
//      → demo POST /api/campaigns/{id}/award
//   2. Lab Clear-Out Week     active, capacity 2, amara joined
//      → one place left; baraka and chebet race for it
//   3. E-Waste 101 Workshop   upcoming

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Elizabethomito/ewastetrack/backend/internal/auth"
	"github.com/Elizabethomito/ewastetrack/backend/internal/itemcode"
	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

// Pre-determined ids keep the seed idempotent across restarts.
const (
	SeedAdminID  = "seed-admin--00000000-0000-0000-0000-000000000001"
	SeedVendorID = "seed-vendor-00000000-0000-0000-0000-000000000002"
	SeedAmaraID  = "seed-amara--00000000-0000-0000-0000-000000000003"
	SeedBarakaID = "seed-baraka-00000000-0000-0000-0000-000000000004"
	SeedChebetID = "seed-chebet-00000000-0000-0000-0000-000000000005"

	SeedBatteryDriveID = "seed-campaign-battery-0000-0000-000000000020"
	SeedLabClearOutID  = "seed-campaign-labweek-0000-0000-000000000021"
	SeedWorkshopID     = "seed-campaign-workshp-0000-0000-000000000022"

	// SeedPassword is shared by every demo account.
	SeedPassword = "demo1234"
)

// SeedResult reports how many records a seed call created.
type SeedResult struct {
	Users     int `json:"users"`
	Items     int `json:"items"`
	Campaigns int `json:"campaigns"`
}

func (s *Server) SeedDemo(w http.ResponseWriter, r *http.Request) {
	res, err := s.Seed(r.Context())
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	s.logger().Info("demo data seeded", "users", res.Users, "items", res.Items, "campaigns", res.Campaigns)
	respond(w, http.StatusOK, map[string]any{
		"seeded":  true,
		"created": res,
		"accounts": []map[string]string{
			{"role": "admin", "email": "admin@campus.test", "password": SeedPassword},
			{"role": "vendor", "email": "vendor@campus.test", "password": SeedPassword},
			{"role": "user", "email": "amara@campus.test", "password": SeedPassword},
			{"role": "user", "email": "baraka@campus.test", "password": SeedPassword},
			{"role": "user", "email": "chebet@campus.test", "password": SeedPassword},
		},
		"campaigns": map[string]string{
			"award_ready": SeedBatteryDriveID,
			"one_place":   SeedLabClearOutID,
			"upcoming":    SeedWorkshopID,
		},
	})
}

// Seed loads the demo data set, skipping records that already exist.
func (s *Server) Seed(ctx context.Context) (SeedResult, error) {
	var res SeedResult
	now := s.now()

	hash, err := auth.HashPassword(SeedPassword)
	if err != nil {
		return res, err
	}

	// ── Users ────────────────────────────────────────────────────────────
	users := []struct {
		id, username, email, dept string
		role                      models.UserRole
	}{
		{SeedAdminID, "facilities", "admin@campus.test", "Facilities", models.RoleAdmin},
		{SeedVendorID, "greencycle", "vendor@campus.test", "GreenCycle Ltd", models.RoleVendor},
		{SeedAmaraID, "amara", "amara@campus.test", "Computer Science", models.RoleUser},
		{SeedBarakaID, "baraka", "baraka@campus.test", "Physics", models.RoleUser},
		{SeedChebetID, "chebet", "chebet@campus.test", "Library", models.RoleUser},
	}
	for _, u := range users {
		created, err := s.seedOnce(ctx,
			func() error { _, err := s.Store.GetUserByID(ctx, u.id); return err },
			func() error {
				return s.Store.CreateUser(ctx, &models.User{
					ID: u.id, Username: u.username, Email: u.email, PasswordHash: hash,
					Role: u.role, Department: u.dept, CreatedAt: now.AddDate(0, -6, 0), UpdatedAt: now,
				})
			})
		if err != nil {
			return res, err
		}
		if created {
			res.Users++
		}
	}

	// ── Items ────────────────────────────────────────────────────────────
	type itemRow struct {
		id, code, name, desc, dept, reporter string
		cat                                  models.ItemCategory
		typ                                  models.ItemType
		age                                  int
		weight                               float64
		loc                                  models.Location
		daysAgo                              int
	}
	items := []itemRow{
		{"seed-item-01", "EW1700000000001DEMOA", "Dell OptiPlex 780", "Tower PC, does not boot",
			"Computer Science", SeedAmaraID, models.CategoryComputers, models.TypeRecyclable, 12, 8.5,
			models.Location{Building: "Science Block", Floor: "2", Room: "204"}, 60},
		{"seed-item-02", "EW1700000000002DEMOB", "CRT monitor", "17 inch, cracked casing",
			"Computer Science", SeedAmaraID, models.CategoryAccessories, models.TypeHazardous, 15, 14,
			models.Location{Building: "Science Block", Floor: "2", Room: "204"}, 45},
		{"seed-item-03", "EW1700000000003DEMOC", "Lab laptops (x3)", "Working, old batteries",
			"Computer Science", SeedAmaraID, models.CategoryComputers, models.TypeReusable, 4, 6.3,
			models.Location{Building: "Science Block", Floor: "1", Room: "Lab 3"}, 20},
		{"seed-item-04", "EW1700000000004DEMOD", "Android phones", "Box of 6 phones with dead screens",
			"Computer Science", SeedAmaraID, models.CategoryMobileDevices, models.TypeRecyclable, 5, 1.2,
			models.Location{Building: "Library", Floor: "G", Room: "Front desk"}, 3},
		{"seed-item-05", "EW1700000000005DEMOE", "Lead-acid UPS batteries", "Swollen, remove with care",
			"Physics", SeedBarakaID, models.CategoryBatteries, models.TypeHazardous, 7, 22,
			models.Location{Building: "Physics Annex", Floor: "B", Room: "Plant room"}, 30},
		{"seed-item-06", "EW1700000000006DEMOF", "Oscilloscope", "Analogue scope, faulty CRT",
			"Physics", SeedBarakaID, models.CategoryLabEquipment, models.TypeRecyclable, 20, 9.8,
			models.Location{Building: "Physics Annex", Floor: "1", Room: "P102"}, 10},
	}
	for _, row := range items {
		created, err := s.seedOnce(ctx,
			func() error { _, err := s.Store.GetItem(ctx, row.id); return err },
			func() error {
				at := now.AddDate(0, 0, -row.daysAgo)
				it := &models.Item{
					ID: row.id, ItemID: row.code, Name: row.name, Category: row.cat, Type: row.typ,
					Description: row.desc, Department: row.dept, ReportedBy: row.reporter,
					Status: models.ItemReported, Age: row.age, Weight: row.weight, Location: row.loc,
					CreatedAt: at, UpdatedAt: at,
				}
				var err error
				if it.QRCode, err = itemcode.Encode(itemcode.PayloadFor(it)); err != nil {
					return err
				}
				return s.Store.ReportItem(ctx, it)
			})
		if err != nil {
			return res, err
		}
		if created {
			res.Items++
		}
	}
	// Move the oldest items along so the reports have something to show.
	// These only run on first seed, when the items are still reported.
	if res.Items > 0 {
		pickup := now.AddDate(0, 0, 2)
		moves := []struct {
			id string
			u  models.ItemUpdate
		}{
			{"seed-item-01", models.ItemUpdate{Status: models.ItemAssessed}},
			{"seed-item-01", models.ItemUpdate{Status: models.ItemCollected, Vendor: SeedVendorID}},
			{"seed-item-01", models.ItemUpdate{Status: models.ItemRecycled}},
			{"seed-item-05", models.ItemUpdate{Status: models.ItemScheduled, ScheduledPickup: &pickup, Vendor: SeedVendorID}},
		}
		for _, m := range moves {
			if _, err := s.Store.UpdateItemStatus(ctx, m.id, m.u); err != nil && !isStateError(err) {
				return res, err
			}
		}
	}

	// ── Campaigns ────────────────────────────────────────────────────────
	two := 2
	campaigns := []struct {
		c       models.Campaign
		joiners []string
		final   models.CampaignStatus
	}{
		{
			c: models.Campaign{
				ID: SeedBatteryDriveID, Title: "Spring Battery Drive",
				Description: "Drop off dead batteries at any library desk.",
				Type:        models.CampaignCollectionDrive,
				StartDate:   now.AddDate(0, -2, 0), EndDate: now.AddDate(0, -1, 0),
				Rewards: models.Rewards{GreenScorePoints: 50, Certificates: true},
			},
			joiners: []string{SeedAmaraID, SeedBarakaID},
			final:   models.CampaignCompleted,
		},
		{
			c: models.Campaign{
				ID: SeedLabClearOutID, Title: "Lab Clear-Out Week",
				Description: "Help technicians sort and tag retired lab equipment.",
				Type:        models.CampaignChallenge, MaxParticipants: &two,
				StartDate: now.AddDate(0, 0, -1), EndDate: now.AddDate(0, 0, 6),
				Rewards: models.Rewards{GreenScorePoints: 30, Prizes: "Reusable water bottle"},
			},
			joiners: []string{SeedAmaraID},
			final:   models.CampaignActive,
		},
		{
			c: models.Campaign{
				ID: SeedWorkshopID, Title: "E-Waste 101 Workshop",
				Description: "What happens to your old phone after you drop it off.",
				Type:        models.CampaignWorkshop,
				StartDate:   now.AddDate(0, 0, 14), EndDate: now.AddDate(0, 0, 14).Add(2 * time.Hour),
				Rewards: models.Rewards{GreenScorePoints: 10},
			},
			final: models.CampaignUpcoming,
		},
	}
	for _, row := range campaigns {
		created, err := s.seedOnce(ctx,
			func() error { _, err := s.Store.GetCampaign(ctx, row.c.ID); return err },
			func() error {
				c := row.c
				c.TargetAudience = append([]string(nil), models.DefaultTargetAudience...)
				c.Status = models.CampaignUpcoming
				c.CreatedBy = SeedAdminID
				c.Participants = []models.Participant{}
				c.CreatedAt, c.UpdatedAt = now, now
				return s.Store.CreateCampaign(ctx, &c)
			})
		if err != nil {
			return res, err
		}
		if !created {
			continue
		}
		res.Campaigns++
		if row.final == models.CampaignUpcoming {
			continue
		}
		if _, err := s.Store.SetCampaignStatus(ctx, row.c.ID, models.CampaignActive, now); err != nil {
			return res, err
		}
		for _, uid := range row.joiners {
			if _, err := s.Store.JoinCampaign(ctx, row.c.ID, uid, now); err != nil {
				return res, err
			}
		}
		if row.final != models.CampaignActive {
			if _, err := s.Store.SetCampaignStatus(ctx, row.c.ID, row.final, now); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

// seedOnce runs create when exists reports ErrNotFound.
func (s *Server) seedOnce(ctx context.Context, exists, create func() error) (bool, error) {
	err := exists()
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, create()
}

func isStateError(err error) bool {
	var se *models.StateError
	return errors.As(err, &se)
}

package mongo

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store/storetest"
)

var dbCounter atomic.Int64

// newTestStore connects to EWASTE_TEST_MONGO_URI with a throwaway database
// that is dropped when the test ends. Without the variable the test is
// skipped.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("EWASTE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("EWASTE_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	name := fmt.Sprintf("ewastetest_%d_%d", time.Now().UnixNano(), dbCounter.Add(1))
	s, err := Open(ctx, uri, name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		s.Drop(context.Background()) //nolint:errcheck
		s.Close()
	})
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestStore(t) })
}

func TestRecoverPendingCredit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := storetest.NewUser(t, s, "pat", "CS")

	// Simulate a crash right after the insert.
	it := storetest.NewItem(u.ID, "CS", 2, time.Now())
	if _, err := s.items.InsertOne(ctx, itemDoc{Item: *it, PendingCredit: true}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	n, err := s.Recover(ctx)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if n != 1 {
		t.Errorf("want 1 recovered, got %d", n)
	}
	got, _ := s.GetUserByID(ctx, u.ID)
	if got.GreenScore != models.ReportCredit || got.TotalContribution != 2 {
		t.Errorf("after recover: %+v", got)
	}

	// A second pass finds nothing to do.
	if n, _ := s.Recover(ctx); n != 0 {
		t.Errorf("second Recover: want 0, got %d", n)
	}
}

func TestRecoverPendingAwardCreditsOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	admin := storetest.NewUser(t, s, "admin", "Facilities")
	u1 := storetest.NewUser(t, s, "quin", "CS")
	u2 := storetest.NewUser(t, s, "rosa", "CS")
	c := storetest.NewCampaign(t, s, admin.ID, models.CampaignActive, nil, time.Now())
	for _, u := range []*models.User{u1, u2} {
		if _, err := s.JoinCampaign(ctx, c.ID, u.ID, time.Now()); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	if _, err := s.SetCampaignStatus(ctx, c.ID, models.CampaignCompleted, time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// Simulate a crash after u1 was credited but before awardedAt was set.
	if _, err := s.campaigns.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{"awardPending": true}}); err != nil {
		t.Fatalf("flag: %v", err)
	}
	if _, err := s.credit(ctx, u1.ID, creditMarker("campaign", c.ID), 25, 0, time.Now()); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if _, err := s.Recover(ctx); err != nil {
		t.Fatalf("Recover: %v", err)
	}
	for _, u := range []*models.User{u1, u2} {
		got, _ := s.GetUserByID(ctx, u.ID)
		if got.GreenScore != 25 {
			t.Errorf("%s: want 25, got %d", u.Username, got.GreenScore)
		}
	}
	res, err := s.AwardCampaign(ctx, c.ID, time.Now())
	if err != nil {
		t.Fatalf("AwardCampaign: %v", err)
	}
	if !res.AlreadyAwarded {
		t.Errorf("award after recover should be a no-op: %+v", res)
	}
}

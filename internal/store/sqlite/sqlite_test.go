package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store/storetest"
)

var dbCounter atomic.Int64

// NewTestStore opens a private in-memory database with the full schema
// applied. It is closed when the test ends.
func NewTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:sqlitetest%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", dbCounter.Add(1))
	s, err := Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("NewTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return NewTestStore(t) })
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ewaste.db")

	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	tables := []string{"users", "items", "campaigns", "campaign_participants"}
	for _, tbl := range tables {
		var name string
		err := s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, tbl).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", tbl, err)
		}
	}
	s.Close()

	// Migrations are IF NOT EXISTS, so reopening the same file is fine.
	s2, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	s2.Close()
}

func TestPingAfterClose(t *testing.T) {
	s := NewTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Error("expected Ping to fail on a closed store")
	}
}

func TestGetUsersByIDs_ManyIDs(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()
	a := storetest.NewUser(t, s, "amara", "CS")
	b := storetest.NewUser(t, s, "baraka", "Physics")

	// More ids than fit in one statement, with the real ones in
	// different batches and repeated.
	ids := make([]string, 0, 3*idBatch)
	ids = append(ids, a.ID)
	for i := 0; i < 3*idBatch-3; i++ {
		ids = append(ids, fmt.Sprintf("missing-%d", i))
	}
	ids = append(ids, b.ID, a.ID)

	users, err := s.GetUsersByIDs(ctx, ids)
	if err != nil {
		t.Fatalf("GetUsersByIDs: %v", err)
	}
	if len(users) != 2 || users[a.ID] == nil || users[b.ID] == nil {
		t.Errorf("got %d users: %v", len(users), users)
	}
	if users[b.ID].Username != "baraka" {
		t.Errorf("username: %q", users[b.ID].Username)
	}
}

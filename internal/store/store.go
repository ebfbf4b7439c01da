// Package store defines the persistence boundary of the service.
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE — why an interface here?
// ────────────────────────────────────────────────────────────────────
// The handlers never know which database they talk to. cmd/server picks an
// implementation at startup (SQLite, MongoDB, or the in-memory fallback)
// and injects it into handlers.Server. Tests do the same with a throwaway
// SQLite or memory store.
//
// Operations that touch more than one record (reporting an item and
// crediting its reporter, joining a campaign under a capacity limit,
// awarding every participant) are single methods. Each implementation
// is responsible for making them atomic in whatever way its backend
// allows (a SQL transaction, a mutex, a conditional document update).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique field (email, username,
	// itemId) is already taken.
	ErrDuplicate = errors.New("already exists")
	// ErrUnavailable wraps backend connectivity failures.
	ErrUnavailable = errors.New("store unavailable")
)

// ItemFilter selects items. Empty fields match everything; a zero From/To
// leaves that side of the date range open.
type ItemFilter struct {
	Department string
	Category   models.ItemCategory
	Status     models.ItemStatus
	Type       models.ItemType
	From       time.Time
	To         time.Time
}

// Match reports whether it passes the filter. Implementations that cannot
// push a filter down to the backend use it directly.
func (f ItemFilter) Match(it *models.Item) bool {
	if f.Department != "" && it.Department != f.Department {
		return false
	}
	if f.Category != "" && it.Category != f.Category {
		return false
	}
	if f.Status != "" && it.Status != f.Status {
		return false
	}
	if f.Type != "" && it.Type != f.Type {
		return false
	}
	if !f.From.IsZero() && it.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && it.CreatedAt.After(f.To) {
		return false
	}
	return true
}

// CampaignFilter selects campaigns by exact type/status.
type CampaignFilter struct {
	Type   models.CampaignType
	Status models.CampaignStatus
}

// Match reports whether c passes the filter.
func (f CampaignFilter) Match(c *models.Campaign) bool {
	if f.Type != "" && c.Type != f.Type {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	return true
}

// Store is implemented by every backend.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	UpdateProfile(ctx context.Context, id, username, department string) (*models.User, error)
	// ListUsers returns every user, highest green score first.
	ListUsers(ctx context.Context) ([]models.User, error)
	// Leaderboard returns at most limit users, highest green score first.
	// An empty department means campus-wide.
	Leaderboard(ctx context.Context, department string, limit int) ([]models.User, error)
	SetGreenScore(ctx context.Context, id string, score int) (*models.User, error)

	// E-waste items
	//
	// ReportItem persists it and credits the reporter with
	// models.ReportCredit points and it.Weight kg of contribution as one
	// unit of work.
	ReportItem(ctx context.Context, it *models.Item) error
	// ListItems returns matching items, newest first.
	ListItems(ctx context.Context, f ItemFilter) ([]models.Item, error)
	GetItem(ctx context.Context, id string) (*models.Item, error)
	GetItemByCode(ctx context.Context, itemID string) (*models.Item, error)
	// UpdateItemStatus applies u after checking the transition table.
	UpdateItemStatus(ctx context.Context, id string, u models.ItemUpdate) (*models.Item, error)

	// Campaigns
	CreateCampaign(ctx context.Context, c *models.Campaign) error
	// ListCampaigns returns matching campaigns, earliest start first.
	ListCampaigns(ctx context.Context, f CampaignFilter) ([]models.Campaign, error)
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
	JoinCampaign(ctx context.Context, id, userID string, at time.Time) (*models.Campaign, error)
	// LeaveCampaign is a no-op when userID is not on the roster.
	LeaveCampaign(ctx context.Context, id, userID string, at time.Time) (*models.Campaign, error)
	SetCampaignStatus(ctx context.Context, id string, status models.CampaignStatus, at time.Time) (*models.Campaign, error)
	// AwardCampaign credits every participant once. Later calls return
	// AlreadyAwarded=true and change nothing.
	AwardCampaign(ctx context.Context, id string, at time.Time) (models.AwardResult, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// Recover completes multi-step writes that a crash interrupted and
	// returns how many it finished.
	Recover(ctx context.Context) (int, error)
	Close() error
}

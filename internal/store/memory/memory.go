// Package memory is the non-persistent Store used in fallback mode and in
// tests. It covers every resource the SQLite and MongoDB stores cover.
//
// A single RWMutex guards all three maps, so every check-then-write
// sequence (capacity check + join, item insert + reporter credit, award
// loop) runs without interleaving.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

// Store keeps everything in process memory. Data is lost on restart.
type Store struct {
	mu        sync.RWMutex
	users     map[string]*models.User
	items     map[string]*models.Item
	campaigns map[string]*models.Campaign
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		users:     make(map[string]*models.User),
		items:     make(map[string]*models.Item),
		campaigns: make(map[string]*models.Campaign),
	}
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyItem(it *models.Item) *models.Item {
	c := *it
	if it.ScheduledPickup != nil {
		t := *it.ScheduledPickup
		c.ScheduledPickup = &t
	}
	if it.EnvironmentalImpact != nil {
		ei := *it.EnvironmentalImpact
		c.EnvironmentalImpact = &ei
	}
	c.Reporter, c.VendorUser = nil, nil
	return &c
}

func copyCampaign(cp *models.Campaign) *models.Campaign {
	c := *cp
	c.TargetAudience = append([]string(nil), cp.TargetAudience...)
	c.Participants = append([]models.Participant(nil), cp.Participants...)
	if cp.MaxParticipants != nil {
		m := *cp.MaxParticipants
		c.MaxParticipants = &m
	}
	if cp.AwardedAt != nil {
		t := *cp.AwardedAt
		c.AwardedAt = &t
	}
	c.Creator = nil
	c.SyncParticipantCount()
	return &c
}

// ---- Users ----

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email || strings.EqualFold(existing.Username, u.Username) {
			return fmt.Errorf("create user: %w", store.ErrDuplicate)
		}
	}
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	return copyUser(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []string) (map[string]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = copyUser(u)
		}
	}
	return out, nil
}

func (s *Store) UpdateProfile(_ context.Context, id, username, department string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	if username != "" && !strings.EqualFold(username, u.Username) {
		for _, other := range s.users {
			if other.ID != id && strings.EqualFold(other.Username, username) {
				return nil, fmt.Errorf("update profile: %w", store.ErrDuplicate)
			}
		}
		u.Username = username
	}
	if department != "" {
		u.Department = department
	}
	u.UpdatedAt = time.Now().UTC()
	return copyUser(u), nil
}

func (s *Store) sortedUsers(department string) []models.User {
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if department != "" && u.Department != department {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GreenScore != out[j].GreenScore {
			return out[i].GreenScore > out[j].GreenScore
		}
		return out[i].Username < out[j].Username
	})
	return out
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedUsers(""), nil
}

func (s *Store) Leaderboard(_ context.Context, department string, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.sortedUsers(department)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SetGreenScore(_ context.Context, id string, score int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	u.GreenScore = score
	u.UpdatedAt = time.Now().UTC()
	return copyUser(u), nil
}

// ---- Items ----

func (s *Store) ReportItem(_ context.Context, it *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reporter, ok := s.users[it.ReportedBy]
	if !ok {
		return fmt.Errorf("reporter %s: %w", it.ReportedBy, store.ErrNotFound)
	}
	for _, existing := range s.items {
		if existing.ItemID == it.ItemID {
			return fmt.Errorf("report item: %w", store.ErrDuplicate)
		}
	}
	s.items[it.ID] = copyItem(it)
	reporter.GreenScore += models.ReportCredit
	reporter.TotalContribution += it.Weight
	reporter.UpdatedAt = it.CreatedAt
	return nil
}

func (s *Store) ListItems(_ context.Context, f store.ItemFilter) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Item{}
	for _, it := range s.items {
		if f.Match(it) {
			out = append(out, *copyItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetItem(_ context.Context, id string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, store.ErrNotFound)
	}
	return copyItem(it), nil
}

func (s *Store) GetItemByCode(_ context.Context, itemID string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ItemID == itemID {
			return copyItem(it), nil
		}
	}
	return nil, fmt.Errorf("item code %s: %w", itemID, store.ErrNotFound)
}

func (s *Store) UpdateItemStatus(_ context.Context, id string, u models.ItemUpdate) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, store.ErrNotFound)
	}
	next := copyItem(it)
	if err := u.Apply(next, time.Now().UTC()); err != nil {
		return nil, err
	}
	s.items[id] = next
	return copyItem(next), nil
}

// ---- Campaigns ----

func (s *Store) CreateCampaign(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.campaigns[c.ID]; exists {
		return fmt.Errorf("create campaign: %w", store.ErrDuplicate)
	}
	s.campaigns[c.ID] = copyCampaign(c)
	return nil
}

func (s *Store) ListCampaigns(_ context.Context, f store.CampaignFilter) ([]models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Campaign{}
	for _, c := range s.campaigns {
		if f.Match(c) {
			out = append(out, *copyCampaign(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *Store) GetCampaign(_ context.Context, id string) (*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign %s: %w", id, store.ErrNotFound)
	}
	return copyCampaign(c), nil
}

// mutateCampaign runs fn on a copy of the campaign under the write lock and
// stores the copy only if fn succeeds.
func (s *Store) mutateCampaign(id string, fn func(c *models.Campaign) error) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign %s: %w", id, store.ErrNotFound)
	}
	next := copyCampaign(c)
	if err := fn(next); err != nil {
		return nil, err
	}
	s.campaigns[id] = next
	return copyCampaign(next), nil
}

func (s *Store) JoinCampaign(_ context.Context, id, userID string, at time.Time) (*models.Campaign, error) {
	return s.mutateCampaign(id, func(c *models.Campaign) error {
		return c.Join(userID, at)
	})
}

func (s *Store) LeaveCampaign(_ context.Context, id, userID string, at time.Time) (*models.Campaign, error) {
	return s.mutateCampaign(id, func(c *models.Campaign) error {
		c.Leave(userID, at)
		return nil
	})
}

func (s *Store) SetCampaignStatus(_ context.Context, id string, status models.CampaignStatus, at time.Time) (*models.Campaign, error) {
	return s.mutateCampaign(id, func(c *models.Campaign) error {
		return c.SetStatus(status, at)
	})
}

func (s *Store) AwardCampaign(_ context.Context, id string, at time.Time) (models.AwardResult, error) {
	var res models.AwardResult
	_, err := s.mutateCampaign(id, func(c *models.Campaign) error {
		done, err := c.CheckAward()
		if err != nil {
			return err
		}
		res.Points = c.Rewards.GreenScorePoints
		if done {
			res.AlreadyAwarded = true
			res.AwardedAt = *c.AwardedAt
			return nil
		}
		for _, p := range c.Participants {
			if u, ok := s.users[p.User]; ok {
				u.GreenScore += c.Rewards.GreenScorePoints
				u.UpdatedAt = at
				res.Awarded++
			}
		}
		awarded := at
		c.AwardedAt = &awarded
		c.UpdatedAt = at
		res.AwardedAt = at
		return nil
	})
	return res, err
}

// ---- Lifecycle ----

func (s *Store) Ping(context.Context) error { return nil }

// Recover has nothing to do: every operation completes under the lock.
func (s *Store) Recover(context.Context) (int, error) { return 0, nil }

func (s *Store) Close() error { return nil }

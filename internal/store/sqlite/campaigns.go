package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

const campaignColumns = `id, title, description, type, start_date, end_date, target_audience,
	max_participants, reward_points, reward_certificates, reward_prizes, status, created_by,
	awarded_at, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*models.Campaign, error) {
	var (
		c        models.Campaign
		audience string
		capacity sql.NullInt64
		awarded  sql.NullTime
	)
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Type, &c.StartDate, &c.EndDate, &audience,
		&capacity, &c.Rewards.GreenScorePoints, &c.Rewards.Certificates, &c.Rewards.Prizes, &c.Status,
		&c.CreatedBy, &awarded, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(audience), &c.TargetAudience); err != nil {
		return nil, fmt.Errorf("decode target audience: %w", err)
	}
	if capacity.Valid {
		m := int(capacity.Int64)
		c.MaxParticipants = &m
	}
	if awarded.Valid {
		t := awarded.Time
		c.AwardedAt = &t
	}
	return &c, nil
}

// loadParticipants fills the roster of every campaign in cs with a single
// query, ordered by join time.
func loadParticipants(ctx context.Context, q querier, cs []*models.Campaign) error {
	if len(cs) == 0 {
		return nil
	}
	byID := make(map[string]*models.Campaign, len(cs))
	args := make([]any, 0, len(cs))
	for _, c := range cs {
		c.Participants = []models.Participant{}
		byID[c.ID] = c
		args = append(args, c.ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cs)), ",")

	rows, err := q.QueryContext(ctx,
		`SELECT campaign_id, user_id, joined_at, contribution FROM campaign_participants
		 WHERE campaign_id IN (`+placeholders+`)
		 ORDER BY joined_at ASC, rowid ASC`, args...)
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			campaignID string
			p          models.Participant
		)
		if err := rows.Scan(&campaignID, &p.User, &p.JoinedAt, &p.Contribution); err != nil {
			return fmt.Errorf("scan participant: %w", err)
		}
		if c, ok := byID[campaignID]; ok {
			c.Participants = append(c.Participants, p)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, c := range cs {
		c.SyncParticipantCount()
	}
	return nil
}

func (s *Store) CreateCampaign(ctx context.Context, c *models.Campaign) error {
	audience, err := json.Marshal(c.TargetAudience)
	if err != nil {
		return fmt.Errorf("encode target audience: %w", err)
	}
	var capacity sql.NullInt64
	if c.MaxParticipants != nil {
		capacity = sql.NullInt64{Int64: int64(*c.MaxParticipants), Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO campaigns (`+campaignColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Description, c.Type, c.StartDate.UTC(), c.EndDate.UTC(), string(audience),
		capacity, c.Rewards.GreenScorePoints, c.Rewards.Certificates, c.Rewards.Prizes, c.Status,
		c.CreatedBy, nullTime(c.AwardedAt), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create campaign: %w", store.ErrDuplicate)
		}
		return fmt.Errorf("create campaign: %w", err)
	}
	c.SyncParticipantCount()
	return nil
}

func (s *Store) ListCampaigns(ctx context.Context, f store.CampaignFilter) ([]models.Campaign, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where, args = append(where, "type = ?"), append(args, f.Type)
	}
	if f.Status != "" {
		where, args = append(where, "status = ?"), append(args, f.Status)
	}
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY start_date ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	var list []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		list = append(list, c)
	}
	err = rows.Err()
	// Close before the roster query: the pool has a single connection.
	rows.Close()
	if err != nil {
		return nil, err
	}

	if err := loadParticipants(ctx, s.db, list); err != nil {
		return nil, err
	}
	out := make([]models.Campaign, 0, len(list))
	for _, c := range list {
		out = append(out, *c)
	}
	return out, nil
}

func (s *Store) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	return getCampaign(ctx, s.db, id)
}

func getCampaign(ctx context.Context, q querier, id string) (*models.Campaign, error) {
	c, err := scanCampaign(q.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "campaign "+id)
	}
	if err := loadParticipants(ctx, q, []*models.Campaign{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// JoinCampaign runs the status, duplicate and capacity checks against the
// roster read inside the same transaction as the insert.
func (s *Store) JoinCampaign(ctx context.Context, id, userID string, at time.Time) (*models.Campaign, error) {
	var c *models.Campaign
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		c, err = getCampaign(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := c.Join(userID, at); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO campaign_participants (campaign_id, user_id, joined_at, contribution) VALUES (?, ?, ?, 0)`,
			id, userID, at); err != nil {
			if isUniqueViolation(err) {
				return &models.StateError{Kind: models.ErrAlreadyParticipating, Msg: "already participating in this campaign"}
			}
			return fmt.Errorf("join campaign: %w", err)
		}
		return touchCampaign(ctx, tx, id, at)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) LeaveCampaign(ctx context.Context, id, userID string, at time.Time) (*models.Campaign, error) {
	var c *models.Campaign
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		c, err = getCampaign(ctx, tx, id)
		if err != nil {
			return err
		}
		if !c.Leave(userID, at) {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM campaign_participants WHERE campaign_id = ? AND user_id = ?`, id, userID); err != nil {
			return fmt.Errorf("leave campaign: %w", err)
		}
		return touchCampaign(ctx, tx, id, at)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func touchCampaign(ctx context.Context, tx *sql.Tx, id string, at time.Time) error {
	if _, err := tx.ExecContext(ctx, `UPDATE campaigns SET updated_at = ? WHERE id = ?`, at, id); err != nil {
		return fmt.Errorf("touch campaign: %w", err)
	}
	return nil
}

func (s *Store) SetCampaignStatus(ctx context.Context, id string, status models.CampaignStatus, at time.Time) (*models.Campaign, error) {
	var c *models.Campaign
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		c, err = getCampaign(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := c.SetStatus(status, at); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE campaigns SET status = ?, updated_at = ? WHERE id = ?`, status, at, id); err != nil {
			return fmt.Errorf("set campaign status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AwardCampaign credits every participant and stamps awarded_at in one
// transaction. A second call finds awarded_at set and changes nothing.
func (s *Store) AwardCampaign(ctx context.Context, id string, at time.Time) (models.AwardResult, error) {
	var res models.AwardResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		c, err := getCampaign(ctx, tx, id)
		if err != nil {
			return err
		}
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

		r, err := tx.ExecContext(ctx,
			`UPDATE users SET green_score = green_score + ?, updated_at = ?
			 WHERE id IN (SELECT user_id FROM campaign_participants WHERE campaign_id = ?)`,
			c.Rewards.GreenScorePoints, at, id)
		if err != nil {
			return fmt.Errorf("award participants: %w", err)
		}
		n, _ := r.RowsAffected()
		res.Awarded = int(n)

		if _, err := tx.ExecContext(ctx,
			`UPDATE campaigns SET awarded_at = ?, updated_at = ? WHERE id = ?`, at, at, id); err != nil {
			return fmt.Errorf("mark campaign awarded: %w", err)
		}
		res.AwardedAt = at
		return nil
	})
	return res, err
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

// userColumns is the SELECT column list for user queries.
const userColumns = `id, username, email, password_hash, role, department, green_score, total_contribution, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Department,
		&u.GreenScore, &u.TotalContribution, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser inserts a new user. Duplicate email or username → store.ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, department, green_score, total_contribution, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.Department,
		u.GreenScore, u.TotalContribution, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user: %w", store.ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return getUser(ctx, s.db, id)
}

func getUser(ctx context.Context, q querier, id string) (*models.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "user "+id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return nil, notFound(err, "user "+email)
	}
	return u, nil
}

// idBatch caps the placeholders bound in one IN query, well under
// SQLite's host-parameter limit.
const idBatch = 500

// GetUsersByIDs loads every existing user among ids. Missing ids are
// simply absent from the map.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	for start := 0; start < len(ids); start += idBatch {
		end := min(start+idBatch, len(ids))
		if err := s.getUsersBatch(ctx, ids[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) getUsersBatch(ctx context.Context, ids []string, out map[string]*models.User) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("get users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return fmt.Errorf("scan user: %w", err)
		}
		out[u.ID] = u
	}
	return rows.Err()
}

// UpdateProfile changes username and/or department; empty values are kept.
func (s *Store) UpdateProfile(ctx context.Context, id, username, department string) (*models.User, error) {
	var u *models.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE users SET
			   username   = COALESCE(NULLIF(?, ''), username),
			   department = COALESCE(NULLIF(?, ''), department),
			   updated_at = ?
			 WHERE id = ?`,
			username, department, time.Now().UTC(), id,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("update profile: %w", store.ErrDuplicate)
			}
			return fmt.Errorf("update profile: %w", err)
		}
		u, err = getUser(ctx, tx, id)
		return err
	})
	return u, err
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.queryUsers(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY green_score DESC, username ASC`)
}

func (s *Store) Leaderboard(ctx context.Context, department string, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	if department == "" {
		return s.queryUsers(ctx,
			`SELECT `+userColumns+` FROM users ORDER BY green_score DESC, username ASC LIMIT ?`, limit)
	}
	return s.queryUsers(ctx,
		`SELECT `+userColumns+` FROM users WHERE department = ?
		 ORDER BY green_score DESC, username ASC LIMIT ?`, department, limit)
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	// Initialise to an empty slice, not nil, so JSON encodes as [] not null.
	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetGreenScore overwrites the user's score.
func (s *Store) SetGreenScore(ctx context.Context, id string, score int) (*models.User, error) {
	var u *models.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET green_score = ?, updated_at = ? WHERE id = ?`,
			score, time.Now().UTC(), id)
		if err != nil {
			return fmt.Errorf("set green score: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("user %s: %w", id, store.ErrNotFound)
		}
		u, err = getUser(ctx, tx, id)
		return err
	})
	return u, err
}

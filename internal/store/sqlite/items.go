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

const itemColumns = `id, item_id, name, category, type, description, department, reported_by, status,
	age, weight, qr_code, building, floor, room, scheduled_pickup, vendor, co2_saved, landfill_reduced,
	created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*models.Item, error) {
	var (
		it       models.Item
		pickup   sql.NullTime
		vendor   sql.NullString
		co2      sql.NullFloat64
		landfill sql.NullFloat64
	)
	err := row.Scan(&it.ID, &it.ItemID, &it.Name, &it.Category, &it.Type, &it.Description,
		&it.Department, &it.ReportedBy, &it.Status, &it.Age, &it.Weight, &it.QRCode,
		&it.Location.Building, &it.Location.Floor, &it.Location.Room,
		&pickup, &vendor, &co2, &landfill, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if pickup.Valid {
		t := pickup.Time
		it.ScheduledPickup = &t
	}
	it.Vendor = vendor.String
	if co2.Valid || landfill.Valid {
		it.EnvironmentalImpact = &models.EnvironmentalImpact{
			CO2Saved:             co2.Float64,
			LandfillWasteReduced: landfill.Float64,
		}
	}
	return &it, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ReportItem inserts the item and credits its reporter in one transaction.
func (s *Store) ReportItem(ctx context.Context, it *models.Item) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var co2, landfill sql.NullFloat64
		if ei := it.EnvironmentalImpact; ei != nil {
			co2 = sql.NullFloat64{Float64: ei.CO2Saved, Valid: true}
			landfill = sql.NullFloat64{Float64: ei.LandfillWasteReduced, Valid: true}
		}

		// Credit first: a missing reporter must fail before the insert
		// trips over the foreign key with a less useful error.
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET green_score = green_score + ?, total_contribution = total_contribution + ?, updated_at = ?
			 WHERE id = ?`,
			models.ReportCredit, it.Weight, it.CreatedAt, it.ReportedBy)
		if err != nil {
			return fmt.Errorf("credit reporter: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("reporter %s: %w", it.ReportedBy, store.ErrNotFound)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO items (`+itemColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.ItemID, it.Name, it.Category, it.Type, it.Description, it.Department,
			it.ReportedBy, it.Status, it.Age, it.Weight, it.QRCode,
			it.Location.Building, it.Location.Floor, it.Location.Room,
			nullTime(it.ScheduledPickup), nullString(it.Vendor), co2, landfill,
			it.CreatedAt, it.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("report item: %w", store.ErrDuplicate)
			}
			return fmt.Errorf("report item: %w", err)
		}
		return nil
	})
}

// ListItems pushes the equality filters into SQL. The date range is applied
// in Go so comparisons happen on parsed times rather than stored strings.
func (s *Store) ListItems(ctx context.Context, f store.ItemFilter) ([]models.Item, error) {
	var (
		where []string
		args  []any
	)
	if f.Department != "" {
		where, args = append(where, "department = ?"), append(args, f.Department)
	}
	if f.Category != "" {
		where, args = append(where, "category = ?"), append(args, f.Category)
	}
	if f.Status != "" {
		where, args = append(where, "status = ?"), append(args, f.Status)
	}
	if f.Type != "" {
		where, args = append(where, "type = ?"), append(args, f.Type)
	}

	query := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if f.Match(it) {
			items = append(items, *it)
		}
	}
	return items, rows.Err()
}

func (s *Store) GetItem(ctx context.Context, id string) (*models.Item, error) {
	return getItem(ctx, s.db, id)
}

func getItem(ctx context.Context, q querier, id string) (*models.Item, error) {
	it, err := scanItem(q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "item "+id)
	}
	return it, nil
}

func (s *Store) GetItemByCode(ctx context.Context, itemID string) (*models.Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE item_id = ?`, itemID))
	if err != nil {
		return nil, notFound(err, "item code "+itemID)
	}
	return it, nil
}

// UpdateItemStatus reads, checks the transition and writes inside one
// transaction so two concurrent updates cannot both pass the check.
func (s *Store) UpdateItemStatus(ctx context.Context, id string, u models.ItemUpdate) (*models.Item, error) {
	var it *models.Item
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		it, err = getItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := u.Apply(it, time.Now().UTC()); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE items SET status = ?, scheduled_pickup = ?, vendor = ?, updated_at = ? WHERE id = ?`,
			it.Status, nullTime(it.ScheduledPickup), nullString(it.Vendor), it.UpdatedAt, id)
		if err != nil {
			return fmt.Errorf("update item status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return it, nil
}

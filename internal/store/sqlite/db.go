// Package sqlite is the default Store, backed by a single SQLite file.
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE — why modernc.org/sqlite instead of go-sqlite3?
// ────────────────────────────────────────────────────────────────────
// go-sqlite3 is a CGo binding and needs a C compiler on the build machine.
// modernc.org/sqlite is a pure-Go port: no CGo, cross-compiles cleanly,
// and the only visible difference is the driver name ("sqlite").
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE — one connection, many goroutines
// ────────────────────────────────────────────────────────────────────
// SQLite allows a single writer at a time. We cap the pool at one open
// connection, so every transaction below is serialised by database/sql
// itself: two concurrent joins on a nearly-full campaign queue up instead
// of both passing the capacity check. The price is that code holding an
// open *sql.Rows must close it before issuing the next query, otherwise it
// would wait forever for the only connection.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	// Blank import: the modernc driver registers itself with
	// database/sql under the name "sqlite" when this package loads.
	_ "modernc.org/sqlite"

	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

// Store implements store.Store on SQLite.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx so read helpers can run
// inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (or creates) the SQLite database at dsn and runs all migrations.
//
// Recommended DSN formats for modernc.org/sqlite:
//   - Production file: "ewaste.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
//   - Tests:           "file:testXYZ?mode=memory&cache=shared&_pragma=foreign_keys(1)"
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w: %w", store.ErrUnavailable, err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("sqlite store ready", "dsn", dsn)
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for tests and diagnostics.
func (s *Store) DB() *sql.DB { return s.db }

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	return nil
}

// Recover is a no-op: every multi-row write commits in one transaction, so
// there is never a half-finished sequence to complete.
func (s *Store) Recover(context.Context) (int, error) { return 0, nil }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// withTx runs fn inside a transaction. The deferred Rollback is a no-op
// once Commit has succeeded.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is a no-op after Commit succeeds

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE")
}

// notFound turns sql.ErrNoRows into store.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// migrate runs each DDL statement in the schema individually; the driver
// only executes the first statement of a multi-statement Exec.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement failed: %w\nstatement: %s", err, stmt)
		}
	}
	return nil
}

// schema contains every CREATE statement for the application.
//
//	users                  : all accounts; role tells admins, users and
//	                         vendors apart. username is case-insensitive.
//
//	items                  : reported e-waste. item_id is the code printed
//	                         on the physical label.
//
//	campaigns              : events users can join. The participant count
//	                         is never stored; it is COUNT(*) of the roster.
//
//	campaign_participants  : the roster. The composite primary key makes a
//	                         second join by the same user impossible.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id                 TEXT PRIMARY KEY,
    username           TEXT NOT NULL UNIQUE COLLATE NOCASE,
    email              TEXT NOT NULL UNIQUE,
    password_hash      TEXT NOT NULL,
    role               TEXT NOT NULL DEFAULT 'user'
                           CHECK(role IN ('admin','user','vendor')),
    department         TEXT NOT NULL DEFAULT '',
    green_score        INTEGER NOT NULL DEFAULT 0,
    total_contribution REAL NOT NULL DEFAULT 0,
    created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_users_department ON users(department);
CREATE INDEX IF NOT EXISTS idx_users_green_score ON users(green_score);

CREATE TABLE IF NOT EXISTS items (
    id               TEXT PRIMARY KEY,
    item_id          TEXT NOT NULL UNIQUE,
    name             TEXT NOT NULL,
    category         TEXT NOT NULL
                         CHECK(category IN ('computers','mobile_devices','lab_equipment','batteries','accessories','other')),
    type             TEXT NOT NULL
                         CHECK(type IN ('recyclable','reusable','hazardous')),
    description      TEXT NOT NULL DEFAULT '',
    department       TEXT NOT NULL,
    reported_by      TEXT NOT NULL REFERENCES users(id),
    status           TEXT NOT NULL DEFAULT 'reported'
                         CHECK(status IN ('reported','assessed','scheduled','collected','recycled','disposed')),
    age              INTEGER NOT NULL CHECK(age >= 0),
    weight           REAL NOT NULL CHECK(weight > 0),
    qr_code          TEXT NOT NULL DEFAULT '',
    building         TEXT NOT NULL DEFAULT '',
    floor            TEXT NOT NULL DEFAULT '',
    room             TEXT NOT NULL DEFAULT '',
    scheduled_pickup DATETIME,
    vendor           TEXT REFERENCES users(id),
    co2_saved        REAL,
    landfill_reduced REAL,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_department ON items(department);
CREATE INDEX IF NOT EXISTS idx_items_status ON items(status);
CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at);

CREATE TABLE IF NOT EXISTS campaigns (
    id                  TEXT PRIMARY KEY,
    title               TEXT NOT NULL,
    description         TEXT NOT NULL,
    type                TEXT NOT NULL
                            CHECK(type IN ('education','collection_drive','challenge','workshop')),
    start_date          DATETIME NOT NULL,
    end_date            DATETIME NOT NULL,
    target_audience     TEXT NOT NULL DEFAULT '[]',
    max_participants    INTEGER,
    reward_points       INTEGER NOT NULL DEFAULT 0,
    reward_certificates BOOLEAN NOT NULL DEFAULT 0,
    reward_prizes       TEXT NOT NULL DEFAULT '',
    status              TEXT NOT NULL DEFAULT 'upcoming'
                            CHECK(status IN ('upcoming','active','completed','cancelled')),
    created_by          TEXT NOT NULL REFERENCES users(id),
    awarded_at          DATETIME,
    created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_campaigns_start_date ON campaigns(start_date);

CREATE TABLE IF NOT EXISTS campaign_participants (
    campaign_id  TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
    user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    joined_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    contribution REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (campaign_id, user_id)
);
`

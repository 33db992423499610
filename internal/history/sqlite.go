// Package history keeps an optional SQLite journal of the notifications the
// daemon displayed and what the user did with them.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/mastodon-notify/internal/model"
)

// Delivery is one displayed notification.
type Delivery struct {
	ID             string       `db:"id"`
	NotificationID int64        `db:"notification_id"`
	Kind           string       `db:"kind"`
	Account        string       `db:"account"`
	Summary        string       `db:"summary"`
	URL            string       `db:"url"`
	SentAt         time.Time    `db:"sent_at"`
	Outcome        string       `db:"outcome"`
	ResolvedAt     sql.NullTime `db:"resolved_at"`
}

// Pending reports whether no outcome has been recorded yet.
func (d Delivery) Pending() bool {
	return d.Outcome == ""
}

// SQLiteStore is the journal backed by a local SQLite database.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single connection keeps :memory: databases shared and writes serial.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Record stores a newly displayed notification under the id the desktop
// service assigned to it.
func (s *SQLiteStore) Record(ctx context.Context, id uint32, n model.Notification) error {
	url, _ := n.URL()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deliveries (id, notification_id, kind, account, summary, url, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), int64(id), n.Kind.String(), n.Account.Acct,
		n.Summary(), url, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording delivery %d: %w", id, err)
	}
	return nil
}

// Resolve sets the outcome of the most recent unresolved delivery with the
// given desktop id. Ids are reused across daemon restarts, so older
// resolved rows are left alone.
func (s *SQLiteStore) Resolve(ctx context.Context, id uint32, outcome string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE deliveries SET outcome = ?, resolved_at = ?
		WHERE id = (
			SELECT id FROM deliveries
			WHERE notification_id = ? AND outcome = ''
			ORDER BY sent_at DESC
			LIMIT 1
		)`,
		outcome, s.now().UTC(), int64(id),
	)
	if err != nil {
		return fmt.Errorf("resolving delivery %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("resolving delivery %d: %w", id, ErrNoDelivery)
	}
	return nil
}

// ErrNoDelivery is returned by Resolve when nothing is waiting for an outcome.
var ErrNoDelivery = errors.New("no pending delivery")

// Recent returns up to limit deliveries, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = 20
	}

	var deliveries []Delivery
	err := s.db.SelectContext(ctx, &deliveries, `
		SELECT id, notification_id, kind, account, summary, url, sent_at, outcome, resolved_at
		FROM deliveries
		ORDER BY sent_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying deliveries: %w", err)
	}
	return deliveries, nil
}

// Package sqlite implements opsgate's persistence: customers and tickets,
// idempotency records, and pending actions, all in a single SQLite database.
// It uses modernc.org/sqlite (pure Go, no CGO) with WAL mode. Uniqueness of
// (tool, key) idempotency pairs and the pending-action status transition are
// both enforced inside the database, which is what makes concurrent writers
// race-safe.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/opsgate/opsgate/internal/action"
	"github.com/opsgate/opsgate/internal/crm"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const defaultBusyTimeout = 5000

// Compile-time interface guards.
var (
	_ action.IdempotencyStore = (*idempotencyStore)(nil)
	_ action.PendingStore     = (*pendingStore)(nil)
	_ crm.Store               = (*crmStore)(nil)
)

// Store owns the database handle and hands out the per-concern store views.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	idem    *idempotencyStore
	pending *pendingStore
	crm     *crmStore
}

// Open opens (creating if needed) the SQLite database at path, applies
// PRAGMAs and the schema migration, and returns the store.
//
// The database uses WAL mode, a 5 s busy timeout, and a single connection
// (SQLite serialises writes).
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:      db,
		logger:  logger,
		idem:    &idempotencyStore{db: db},
		pending: &pendingStore{db: db},
		crm:     &crmStore{db: db},
	}, nil
}

// Idempotency returns the idempotency-record store view.
func (s *Store) Idempotency() action.IdempotencyStore { return s.idem }

// Pending returns the pending-action store view.
func (s *Store) Pending() action.PendingStore { return s.pending }

// CRM returns the business-entity store view.
func (s *Store) CRM() crm.Store { return s.crm }

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Checkpoint truncates the WAL file. Called periodically by the
// maintenance scheduler.
func (s *Store) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("sqlite: wal checkpoint: %w", err)
	}
	return nil
}

// Stats is a point-in-time row-count snapshot used for housekeeping logs.
type Stats struct {
	Customers          int
	Tickets            int
	PendingOpen        int
	IdempotencyRecords int
}

// CollectStats counts rows across the gateway's tables.
func (s *Store) CollectStats(ctx context.Context) (Stats, error) {
	var st Stats
	counts := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM customers", &st.Customers},
		{"SELECT COUNT(*) FROM tickets", &st.Tickets},
		{"SELECT COUNT(*) FROM pending_actions WHERE status = 'pending'", &st.PendingOpen},
		{"SELECT COUNT(*) FROM idempotency_records", &st.IdempotencyRecords},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("sqlite: collect stats: %w", err)
		}
	}
	return st, nil
}

// SeedDemo inserts the demo customer set when the customers table is empty.
func (s *Store) SeedDemo(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&n); err != nil {
		return fmt.Errorf("sqlite: count customers: %w", err)
	}
	if n > 0 {
		return nil
	}

	for _, name := range []string{"ACME AB", "Nordic Widgets", "Beta Logistics"} {
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO customers (name, status) VALUES (?, 'Active')", name); err != nil {
			return fmt.Errorf("sqlite: seed customer %s: %w", name, err)
		}
	}

	s.logger.Info("seeded demo customers", "count", 3)
	return nil
}

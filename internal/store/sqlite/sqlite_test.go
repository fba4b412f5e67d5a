package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "opsgate.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "opsgate.db")
	s1, err := Open(path, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopening an already-migrated database must not fail.
	s2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer func() { _ = s2.Close() }()

	if err := s2.Ping(context.Background()); err != nil {
		t.Fatalf("ping after reopen: %v", err)
	}
}

func TestSeedDemo(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SeedDemo(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	customers, err := s.CRM().ListCustomers(ctx)
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(customers) != 3 {
		t.Fatalf("expected 3 seeded customers, got %d", len(customers))
	}

	// A second seed call must not duplicate rows.
	if err := s.SeedDemo(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	customers, err = s.CRM().ListCustomers(ctx)
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(customers) != 3 {
		t.Fatalf("expected seed to be idempotent, got %d customers", len(customers))
	}
}

func TestCollectStats(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SeedDemo(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Pending().Create(ctx, "update_customer_status", []byte(`{}`)); err != nil {
		t.Fatalf("create pending: %v", err)
	}
	if err := s.Idempotency().Store(ctx, "create_ticket", "k1", []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("store idempotency record: %v", err)
	}

	stats, err := s.CollectStats(ctx)
	if err != nil {
		t.Fatalf("collect stats: %v", err)
	}
	if stats.Customers != 3 {
		t.Fatalf("expected 3 customers, got %d", stats.Customers)
	}
	if stats.PendingOpen != 1 {
		t.Fatalf("expected 1 open pending action, got %d", stats.PendingOpen)
	}
	if stats.IdempotencyRecords != 1 {
		t.Fatalf("expected 1 idempotency record, got %d", stats.IdempotencyRecords)
	}
}

func TestCheckpoint(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	if err := s.Checkpoint(context.Background()); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
}

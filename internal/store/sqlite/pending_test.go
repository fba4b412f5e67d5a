package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/opsgate/opsgate/internal/action"
)

func TestPendingCreateAndGet(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	payload := []byte(`{"customer_id":1,"new_status":"Churned"}`)

	id, err := s.Pending().Create(ctx, "update_customer_status", payload)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	rec, err := s.Pending().Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.ActionType != "update_customer_status" {
		t.Fatalf("unexpected action type %q", rec.ActionType)
	}
	if rec.Status != action.StatusPending {
		t.Fatalf("expected pending status, got %q", rec.Status)
	}
	if rec.SchemaVersion != action.PayloadSchemaVersion {
		t.Fatalf("expected schema version %d, got %d", action.PayloadSchemaVersion, rec.SchemaVersion)
	}
	if string(rec.Payload) != string(payload) {
		t.Fatalf("payload not stored verbatim: %s", rec.Payload)
	}
	if rec.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestPendingGetNotFound(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	_, err := s.Pending().Get(context.Background(), "nope")
	if !errors.Is(err, action.ErrPendingNotFound) {
		t.Fatalf("expected ErrPendingNotFound, got %v", err)
	}
}

func TestPendingResolveApprove(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Pending().Create(ctx, "update_customer_status", []byte(`{}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec, err := s.Pending().Resolve(ctx, id, true)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rec.Status != action.StatusConfirmed {
		t.Fatalf("expected confirmed, got %q", rec.Status)
	}
}

func TestPendingResolveReject(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Pending().Create(ctx, "update_customer_status", []byte(`{}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec, err := s.Pending().Resolve(ctx, id, false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rec.Status != action.StatusRejected {
		t.Fatalf("expected rejected, got %q", rec.Status)
	}
}

func TestPendingResolveAlreadyResolved(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Pending().Create(ctx, "update_customer_status", []byte(`{}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Pending().Resolve(ctx, id, true); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	_, err = s.Pending().Resolve(ctx, id, false)
	are, ok := action.IsAlreadyResolved(err)
	if !ok {
		t.Fatalf("expected AlreadyResolvedError, got %v", err)
	}
	if are.Status != action.StatusConfirmed {
		t.Fatalf("expected terminal status confirmed, got %q", are.Status)
	}
}

func TestPendingResolveNotFound(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	_, err := s.Pending().Resolve(context.Background(), "nope", true)
	if !errors.Is(err, action.ErrPendingNotFound) {
		t.Fatalf("expected ErrPendingNotFound, got %v", err)
	}
}

func TestPendingResolveConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Pending().Create(ctx, "update_customer_status", []byte(`{}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const resolvers = 8
	var wg sync.WaitGroup
	results := make([]error, resolvers)
	for i := 0; i < resolvers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.Pending().Resolve(ctx, id, i%2 == 0)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		if _, ok := action.IsAlreadyResolved(err); !ok {
			t.Fatalf("loser got unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestPendingMarkRejected(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Pending().Create(ctx, "update_customer_status", []byte(`{}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// MarkRejected overrides even a confirmed record; the resolution
	// winner uses it when the approval cannot be honored.
	if _, err := s.Pending().Resolve(ctx, id, true); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := s.Pending().MarkRejected(ctx, id); err != nil {
		t.Fatalf("mark rejected: %v", err)
	}

	rec, err := s.Pending().Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != action.StatusRejected {
		t.Fatalf("expected rejected, got %q", rec.Status)
	}
}

func TestPendingMarkRejectedNotFound(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	err := s.Pending().MarkRejected(context.Background(), "nope")
	if !errors.Is(err, action.ErrPendingNotFound) {
		t.Fatalf("expected ErrPendingNotFound, got %v", err)
	}
}

func TestPendingIDsAreUnique(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := s.Pending().Create(ctx, "update_customer_status", []byte(`{}`))
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if seen[id] {
			t.Fatalf("duplicate pending id %s", id)
		}
		seen[id] = true
	}
}

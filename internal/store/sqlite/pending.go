package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opsgate/opsgate/internal/action"
)

// pendingStore implements action.PendingStore backed by SQLite.
type pendingStore struct {
	db *sql.DB
}

// newPendingID returns a 128-bit random identifier encoded as hex.
func newPendingID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Create persists a new pending record and returns its identifier.
func (s *pendingStore) Create(ctx context.Context, actionType string, payload json.RawMessage) (string, error) {
	id := newPendingID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_actions (id, action_type, payload, schema_version, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, actionType, string(payload), action.PayloadSchemaVersion,
		string(action.StatusPending),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: create pending action: %w", err)
	}
	return id, nil
}

// Get looks up a pending action by identifier.
func (s *pendingStore) Get(ctx context.Context, id string) (action.PendingAction, error) {
	var (
		rec          action.PendingAction
		payload      string
		status       string
		createdAtStr string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, action_type, payload, schema_version, status, created_at
		FROM pending_actions WHERE id = ?`,
		id,
	).Scan(&rec.ID, &rec.ActionType, &payload, &rec.SchemaVersion, &status, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return action.PendingAction{}, fmt.Errorf("%w: %s", action.ErrPendingNotFound, id)
	}
	if err != nil {
		return action.PendingAction{}, fmt.Errorf("sqlite: get pending action: %w", err)
	}

	rec.Payload = json.RawMessage(payload)
	rec.Status = action.Status(status)
	if t, err := time.Parse(time.RFC3339Nano, createdAtStr); err == nil {
		rec.CreatedAt = t
	}
	return rec, nil
}

// Resolve transitions pending → confirmed/rejected atomically. The UPDATE
// is a compare-and-set on status: the first resolver flips the row, every
// later one matches zero rows and observes the terminal status instead.
func (s *pendingStore) Resolve(ctx context.Context, id string, approve bool) (action.PendingAction, error) {
	target := action.StatusRejected
	if approve {
		target = action.StatusConfirmed
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE pending_actions SET status = ? WHERE id = ? AND status = ?",
		string(target), id, string(action.StatusPending),
	)
	if err != nil {
		return action.PendingAction{}, fmt.Errorf("sqlite: resolve pending action: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return action.PendingAction{}, fmt.Errorf("sqlite: rows affected: %w", err)
	}

	rec, getErr := s.Get(ctx, id)
	if getErr != nil {
		return action.PendingAction{}, getErr
	}

	if n == 0 {
		return action.PendingAction{}, &action.AlreadyResolvedError{Status: rec.Status}
	}
	return rec, nil
}

// MarkRejected forces a record to rejected, regardless of current status.
// Used only by the resolution winner when an approval cannot be honored.
func (s *pendingStore) MarkRejected(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE pending_actions SET status = ? WHERE id = ?",
		string(action.StatusRejected), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: mark rejected: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", action.ErrPendingNotFound, id)
	}
	return nil
}

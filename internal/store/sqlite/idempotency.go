package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opsgate/opsgate/internal/action"
)

// idempotencyStore implements action.IdempotencyStore backed by SQLite.
type idempotencyStore struct {
	db *sql.DB
}

// Lookup returns the stored response for (tool, key), if any.
func (s *idempotencyStore) Lookup(ctx context.Context, tool, key string) (json.RawMessage, bool, error) {
	var response string
	err := s.db.QueryRowContext(ctx,
		"SELECT response FROM idempotency_records WHERE tool = ? AND key = ?",
		tool, key,
	).Scan(&response)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: lookup idempotency record: %w", err)
	}
	return json.RawMessage(response), true, nil
}

// Store persists the response under (tool, key). First write wins: the
// insert is INSERT OR IGNORE against the unique (tool, key) index, and a
// losing writer's payload is compared against the surviving record:
// identical is a no-op, divergent is action.ErrConflict.
func (s *idempotencyStore) Store(ctx context.Context, tool, key string, response json.RawMessage) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO idempotency_records (tool, key, response) VALUES (?, ?, ?)",
		tool, key, string(response),
	)
	if err != nil {
		return fmt.Errorf("sqlite: store idempotency record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var existing string
	if err := s.db.QueryRowContext(ctx,
		"SELECT response FROM idempotency_records WHERE tool = ? AND key = ?",
		tool, key,
	).Scan(&existing); err != nil {
		return fmt.Errorf("sqlite: read existing idempotency record: %w", err)
	}

	if existing == string(response) {
		return nil
	}
	return fmt.Errorf("%w: tool %s key %s", action.ErrConflict, tool, key)
}

package action

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is returned when an idempotency key is reused with a
	// divergent response payload.
	ErrConflict = errors.New("idempotency key conflict")

	// ErrPendingNotFound is returned when no pending action exists for an
	// identifier.
	ErrPendingNotFound = errors.New("pending action not found")

	// ErrUnknownAction is returned when a pending action references a tool
	// the registry no longer recognizes at approval time. The record is
	// marked rejected; the payload cannot be honored.
	ErrUnknownAction = errors.New("unknown action type")
)

// AlreadyResolvedError reports that a pending action was resolved before
// this call, carrying the terminal status the record holds.
type AlreadyResolvedError struct {
	Status Status
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("pending action already %s", e.Status)
}

// IsAlreadyResolved reports whether err is an AlreadyResolvedError and
// returns it if so.
func IsAlreadyResolved(err error) (*AlreadyResolvedError, bool) {
	var are *AlreadyResolvedError
	if errors.As(err, &are) {
		return are, true
	}
	return nil, false
}

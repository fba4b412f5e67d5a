// Package action implements the confirmation/idempotency core: the executor
// that decides, per tool invocation, whether to execute immediately, replay a
// cached response, or park the action for human approval, plus the store
// contracts that back those decisions.
package action

import (
	"context"
	"encoding/json"
	"time"
)

// Status is the pending-action state. The machine is strictly one-way:
// pending → confirmed or pending → rejected, both terminal.
type Status string

// Pending-action statuses.
const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
)

// PayloadSchemaVersion is stamped on every stored pending-action payload.
// Replaying a payload written under a different version is undefined and
// must be rejected rather than silently resolved.
const PayloadSchemaVersion = 1

// Invocation is one tool call as delivered by the transport layer.
type Invocation struct {
	// Tool is the registered tool name.
	Tool string

	// Payload is the decoded, schema-validated request body.
	Payload json.RawMessage

	// IdempotencyKey is the optional client-supplied replay key.
	IdempotencyKey string

	// Confirmed is the caller's explicit pre-confirmation flag. When set,
	// risk-gated tools execute immediately instead of parking.
	Confirmed bool
}

// PendingAction is a proposed-but-unexecuted mutating action awaiting
// human approval.
type PendingAction struct {
	ID            string
	ActionType    string
	Payload       json.RawMessage
	SchemaVersion int
	Status        Status
	CreatedAt     time.Time
}

// OutcomeKind distinguishes the possible results of an invocation or a
// confirmation call.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeExecuted  OutcomeKind = "executed"
	OutcomeReplay    OutcomeKind = "replay"
	OutcomePending   OutcomeKind = "pending"
	OutcomeConfirmed OutcomeKind = "confirmed"
	OutcomeRejected  OutcomeKind = "rejected"
)

// Outcome is the structured result the transport layer turns into a
// protocol response. Response is set for executed/replay/confirmed,
// PendingID for pending and confirmation results.
type Outcome struct {
	Kind      OutcomeKind
	Response  json.RawMessage
	PendingID string
}

// Replay reports whether the outcome is a cached response returned in place
// of re-execution.
func (o Outcome) Replay() bool { return o.Kind == OutcomeReplay }

// IdempotencyStore maps (tool, key) to a previously computed response.
// First write wins; implementations resolve write races via a uniqueness
// constraint so exactly one record survives per pair.
type IdempotencyStore interface {
	// Lookup returns the stored response for (tool, key), if any.
	Lookup(ctx context.Context, tool, key string) (json.RawMessage, bool, error)

	// Store persists the response under (tool, key). Storing an identical
	// response again is a no-op; a divergent second write fails with
	// ErrConflict.
	Store(ctx context.Context, tool, key string, response json.RawMessage) error
}

// PendingStore tracks pending actions. Resolution is atomic with respect to
// concurrent resolvers: exactly one wins, losers observe
// AlreadyResolvedError.
type PendingStore interface {
	// Create persists a new pending record and returns its identifier.
	Create(ctx context.Context, actionType string, payload json.RawMessage) (string, error)

	// Get looks up a pending action by identifier.
	Get(ctx context.Context, id string) (PendingAction, error)

	// Resolve transitions pending → confirmed/rejected via compare-and-set
	// and returns the updated record.
	Resolve(ctx context.Context, id string, approve bool) (PendingAction, error)

	// MarkRejected forces a record to rejected. Used only by the resolution
	// winner when an approval cannot be honored.
	MarkRejected(ctx context.Context, id string) error
}

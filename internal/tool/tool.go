// Package tool defines the tool interface, the registry, and the policy gate
// for opsgate. Tools are the primary security boundary: every action an agent
// takes goes through a registered tool, behind the policy allow-list and the
// risk-based confirmation gate.
package tool

import (
	"context"
	"encoding/json"
)

// Risk classifies how dangerous a tool is when invoked by an agent.
// High-risk tools require human confirmation before they execute.
type Risk string

// Risk levels for registered tools.
const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// RequiresConfirmation reports whether an invocation at this risk level must
// be parked for human approval unless the caller pre-confirmed it.
// The mapping is declared here, centrally, rather than inside each tool.
func (r Risk) RequiresConfirmation() bool {
	return r == RiskHigh
}

// Valid reports whether r is one of the declared risk levels.
func (r Risk) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}

// Tool is the interface all opsgate tools implement.
// Metadata methods feed the discovery document; Execute performs the action.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what the tool does.
	Description() string

	// Method and Path describe the HTTP surface the tool is exposed on.
	Method() string
	Path() string

	// Risk returns the declared risk level.
	Risk() Risk

	// Idempotent reports whether the tool honors a client-supplied
	// idempotency key.
	Idempotent() bool

	// InputSchema and OutputSchema return JSON Schemas for the tool's
	// payload and response.
	InputSchema() json.RawMessage
	OutputSchema() json.RawMessage

	// Execute runs the tool with the given JSON arguments.
	Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error)
}

// Validator is implemented by tools that can vet an invocation payload
// before it runs. The executor calls it ahead of the confirmation gate, so
// malformed input or a reference to a missing entity fails the request
// instead of parking a pending action that can never be honored.
type Validator interface {
	Validate(ctx context.Context, args json.RawMessage) error
}

// Descriptor is the serializable discovery metadata for a registered tool.
type Descriptor struct {
	Name                   string          `json:"name"`
	Method                 string          `json:"method"`
	Path                   string          `json:"path"`
	Description            string          `json:"description"`
	Risk                   Risk            `json:"risk"`
	SupportsIdempotencyKey bool            `json:"supports_idempotency_key"`
	InputSchema            json.RawMessage `json:"input_schema"`
	OutputSchema           json.RawMessage `json:"output_schema"`
}

// Package security provides the audit sink and the request rate limiter.
// Both sit outside the confirmation/idempotency core: auditing is
// best-effort and never fails a business operation, and rate limiting is
// transport middleware with its own state lifecycle.
package security

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// EventType categorizes audit events.
type EventType string

// Audit event types covering every invocation outcome the gateway produces.
const (
	EventToolCall     EventType = "tool_call"
	EventToolResult   EventType = "tool_result"
	EventReplay       EventType = "idempotent_replay"
	EventApproval     EventType = "approval"
	EventPolicyDenied EventType = "policy_denied"
	EventAuthSuccess  EventType = "auth_success"
	EventAuthFailure  EventType = "auth_failure"
	EventRateLimit    EventType = "rate_limit"
)

// AuditEvent is a single audit log entry.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"type"`
	Tool      string            `json:"tool,omitempty"`
	PendingID string            `json:"pending_id,omitempty"`
	Input     string            `json:"input,omitempty"`
	Output    string            `json:"output,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditLoggerConfig configures the audit logger.
type AuditLoggerConfig struct {
	// Writer is the destination for JSONL output. If nil, events are only
	// dispatched to OnEvent (useful for testing).
	Writer io.Writer

	// OnEvent, if non-nil, is called for every event (used in tests).
	OnEvent func(AuditEvent)

	// Now overrides time.Now for testing. Defaults to time.Now.
	Now func() time.Time
}

// AuditLogger writes structured audit events as JSONL.
// Write errors are swallowed: auditing must never block or fail the
// operation being audited.
type AuditLogger struct {
	writer  io.Writer
	onEvent func(AuditEvent)
	now     func() time.Time
	mu      sync.Mutex
}

// NewAuditLogger creates an audit logger with the given configuration.
func NewAuditLogger(cfg AuditLoggerConfig) *AuditLogger {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &AuditLogger{
		writer:  cfg.Writer,
		onEvent: cfg.OnEvent,
		now:     now,
	}
}

// Log writes an audit event. The timestamp is set automatically.
// The caller's Metadata map is never mutated.
func (l *AuditLogger) Log(event AuditEvent) {
	if l == nil {
		return
	}
	event.Timestamp = l.now().UTC()

	if len(event.Metadata) > 0 {
		cp := make(map[string]string, len(event.Metadata))
		for k, v := range event.Metadata {
			cp[k] = v
		}
		event.Metadata = cp
	}

	// Dispatch to test callback and write JSONL under the same lock
	// to keep event ordering consistent.
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.onEvent != nil {
		l.onEvent(event)
	}

	if l.writer != nil {
		_ = json.NewEncoder(l.writer).Encode(event)
	}
}

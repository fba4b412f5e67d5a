// Package event defines the operator-facing event feed: a small publish
// interface plus the event payload broadcast to connected observers
// (pending-action lifecycle, outbound messages).
package event

import "time"

// Type categorizes operator events.
type Type string

// Event types published on the operator feed.
const (
	TypePendingCreated   Type = "pending_created"
	TypePendingConfirmed Type = "pending_confirmed"
	TypePendingRejected  Type = "pending_rejected"
	TypeMessageSent      Type = "message_sent"
)

// Event is a single operator feed entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      Type      `json:"type"`
	Tool      string    `json:"tool,omitempty"`
	PendingID string    `json:"pending_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Publisher delivers events to observers. Implementations must be
// fire-and-forget: a slow or absent observer never blocks the caller.
type Publisher interface {
	Publish(ev Event)
}

// NopPublisher discards all events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(Event) {}

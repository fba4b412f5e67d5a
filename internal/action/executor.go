package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/opsgate/opsgate/internal/event"
	"github.com/opsgate/opsgate/internal/observability"
	"github.com/opsgate/opsgate/internal/security"
	"github.com/opsgate/opsgate/internal/tool"
	"go.opentelemetry.io/otel/attribute"
)

// ExecutorConfig collects the executor's collaborators.
type ExecutorConfig struct {
	Registry    *tool.Registry
	Gate        *tool.Gate
	Idempotency IdempotencyStore
	Pending     PendingStore

	// Audit receives every invocation outcome. May be nil.
	Audit *security.AuditLogger

	// Events receives pending-action lifecycle events. May be nil.
	Events event.Publisher

	Logger *slog.Logger
}

// Executor runs the per-invocation decision protocol:
// policy gate → idempotency lookup → confirmation gate → execution,
// in that order, never reordered.
type Executor struct {
	registry *tool.Registry
	gate     *tool.Gate
	idem     IdempotencyStore
	pending  PendingStore
	audit    *security.AuditLogger
	events   event.Publisher
	logger   *slog.Logger
}

// NewExecutor creates an executor from the given collaborators.
func NewExecutor(cfg ExecutorConfig) *Executor {
	events := cfg.Events
	if events == nil {
		events = event.NopPublisher{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		registry: cfg.Registry,
		gate:     cfg.Gate,
		idem:     cfg.Idempotency,
		pending:  cfg.Pending,
		audit:    cfg.Audit,
		events:   events,
		logger:   logger,
	}
}

// Invoke applies the decision protocol to a single tool invocation.
func (e *Executor) Invoke(ctx context.Context, inv Invocation) (Outcome, error) {
	ctx, span := observability.StartToolSpan(ctx, inv.Tool, inv.IdempotencyKey)
	defer span.End()

	if err := e.gate.Assert(inv.Tool); err != nil {
		e.audit.Log(security.AuditEvent{
			Type:   security.EventPolicyDenied,
			Tool:   inv.Tool,
			Detail: err.Error(),
		})
		span.SetAttributes(attribute.String("tool.outcome", "policy_denied"))
		return Outcome{}, err
	}

	t, err := e.registry.Get(inv.Tool)
	if err != nil {
		return Outcome{}, err
	}

	e.audit.Log(security.AuditEvent{
		Type:  security.EventToolCall,
		Tool:  inv.Tool,
		Input: truncate(string(inv.Payload)),
	})

	// Idempotency replay happens before the confirmation gate: a cached
	// response means the action already took effect once.
	keyed := t.Idempotent() && inv.IdempotencyKey != ""
	if keyed {
		cached, ok, err := e.idem.Lookup(ctx, inv.Tool, inv.IdempotencyKey)
		if err != nil {
			return Outcome{}, fmt.Errorf("idempotency lookup: %w", err)
		}
		if ok {
			e.audit.Log(security.AuditEvent{
				Type:   security.EventReplay,
				Tool:   inv.Tool,
				Output: truncate(string(cached)),
				Metadata: map[string]string{
					"idempotency_key": inv.IdempotencyKey,
				},
			})
			span.SetAttributes(attribute.String("tool.outcome", "replay"))
			return Outcome{Kind: OutcomeReplay, Response: cached}, nil
		}
	}

	// Vet the payload before the confirmation gate: a request that is
	// malformed or references a missing entity fails now, rather than
	// parking a pending action that can only be rejected later.
	if v, ok := t.(tool.Validator); ok {
		if err := v.Validate(ctx, inv.Payload); err != nil {
			e.audit.Log(security.AuditEvent{
				Type:   security.EventToolResult,
				Tool:   inv.Tool,
				Detail: "invalid: " + err.Error(),
			})
			span.SetAttributes(attribute.String("tool.outcome", "invalid"))
			return Outcome{}, err
		}
	}

	if t.Risk().RequiresConfirmation() && !inv.Confirmed {
		id, err := e.pending.Create(ctx, inv.Tool, inv.Payload)
		if err != nil {
			return Outcome{}, fmt.Errorf("create pending action: %w", err)
		}

		e.audit.Log(security.AuditEvent{
			Type:      security.EventApproval,
			Tool:      inv.Tool,
			PendingID: id,
			Input:     truncate(string(inv.Payload)),
			Detail:    "confirmation required",
		})
		e.events.Publish(event.Event{
			Type:      event.TypePendingCreated,
			Tool:      inv.Tool,
			PendingID: id,
		})
		span.SetAttributes(attribute.String("tool.outcome", "pending"))
		return Outcome{Kind: OutcomePending, PendingID: id}, nil
	}

	resp, err := t.Execute(ctx, inv.Payload)
	if err != nil {
		e.audit.Log(security.AuditEvent{
			Type:   security.EventToolResult,
			Tool:   inv.Tool,
			Detail: "error: " + err.Error(),
		})
		span.SetAttributes(attribute.String("tool.outcome", "error"))
		return Outcome{}, err
	}

	if keyed {
		if err := e.idem.Store(ctx, inv.Tool, inv.IdempotencyKey, resp); err != nil {
			// A concurrent call with the same key won the race and stored a
			// divergent response. The effect happened; the caller retries
			// with the same key and gets the surviving record.
			return Outcome{}, fmt.Errorf("idempotency store: %w", err)
		}
	}

	e.audit.Log(security.AuditEvent{
		Type:   security.EventToolResult,
		Tool:   inv.Tool,
		Output: truncate(string(resp)),
	})
	span.SetAttributes(attribute.String("tool.outcome", "executed"))
	return Outcome{Kind: OutcomeExecuted, Response: resp}, nil
}

// Resolve approves or rejects a pending action. On approval the stored
// payload is re-executed against the current registry; if that is no longer
// possible (tool gone, entity gone) the record is marked rejected.
func (e *Executor) Resolve(ctx context.Context, id string, approve bool) (Outcome, error) {
	ctx, span := observability.StartConfirmSpan(ctx, id, approve)
	defer span.End()

	rec, err := e.pending.Resolve(ctx, id, approve)
	if err != nil {
		return Outcome{}, err
	}

	if !approve {
		e.audit.Log(security.AuditEvent{
			Type:      security.EventApproval,
			Tool:      rec.ActionType,
			PendingID: id,
			Detail:    "rejected",
		})
		e.events.Publish(event.Event{
			Type:      event.TypePendingRejected,
			Tool:      rec.ActionType,
			PendingID: id,
		})
		return Outcome{Kind: OutcomeRejected, PendingID: id}, nil
	}

	t, err := e.registry.Get(rec.ActionType)
	if err != nil {
		// The resolution winner owns the record; a payload that can no
		// longer be honored moves it to rejected.
		if mErr := e.pending.MarkRejected(ctx, id); mErr != nil {
			e.logger.Error("mark rejected failed", "pending_id", id, "error", mErr)
		}
		e.audit.Log(security.AuditEvent{
			Type:      security.EventApproval,
			Tool:      rec.ActionType,
			PendingID: id,
			Detail:    "rejected: unknown action type",
		})
		if errors.Is(err, tool.ErrToolNotFound) {
			return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownAction, rec.ActionType)
		}
		return Outcome{}, err
	}

	resp, err := t.Execute(ctx, rec.Payload)
	if err != nil {
		if mErr := e.pending.MarkRejected(ctx, id); mErr != nil {
			e.logger.Error("mark rejected failed", "pending_id", id, "error", mErr)
		}
		e.audit.Log(security.AuditEvent{
			Type:      security.EventApproval,
			Tool:      rec.ActionType,
			PendingID: id,
			Detail:    "rejected: " + err.Error(),
		})
		e.events.Publish(event.Event{
			Type:      event.TypePendingRejected,
			Tool:      rec.ActionType,
			PendingID: id,
			Detail:    err.Error(),
		})
		return Outcome{}, err
	}

	e.audit.Log(security.AuditEvent{
		Type:      security.EventApproval,
		Tool:      rec.ActionType,
		PendingID: id,
		Output:    truncate(string(resp)),
		Detail:    "confirmed",
	})
	e.events.Publish(event.Event{
		Type:      event.TypePendingConfirmed,
		Tool:      rec.ActionType,
		PendingID: id,
	})
	return Outcome{Kind: OutcomeConfirmed, PendingID: id, Response: resp}, nil
}

// maxAuditDetailLen caps audit payload summaries to keep the log compact.
const maxAuditDetailLen = 2048

// truncate shortens s to maxAuditDetailLen, walking back to a valid UTF-8
// rune boundary so a multi-byte character is never split.
func truncate(s string) string {
	if len(s) <= maxAuditDetailLen {
		return s
	}
	i := maxAuditDetailLen
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i] + "...(truncated)"
}

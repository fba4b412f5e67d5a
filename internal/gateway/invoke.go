package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/opsgate/opsgate/internal/action"
	"github.com/opsgate/opsgate/internal/crm"
	"github.com/opsgate/opsgate/internal/tool"
)

// maxBodyBytes caps tool payload size.
const maxBodyBytes = 1 << 20

// handleInvokeTool runs one tool invocation through the executor and maps
// the outcome onto the HTTP response.
func (s *Server) handleInvokeTool() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "tool")

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read body")
			return
		}
		if len(body) == 0 {
			body = []byte("{}")
		}
		if !json.Valid(body) {
			writeError(w, http.StatusBadRequest, "body must be valid JSON")
			return
		}

		// The pre-confirmation flag rides inside the payload, matching the
		// wire format agents already speak.
		var flags struct {
			Confirm bool `json:"confirm"`
		}
		_ = json.Unmarshal(body, &flags)

		inv := action.Invocation{
			Tool:           name,
			Payload:        body,
			IdempotencyKey: r.Header.Get("Idempotency-Key"),
			Confirmed:      flags.Confirm,
		}

		start := time.Now()
		out, err := s.executor.Invoke(r.Context(), inv)
		s.metrics.ObserveInvocation(name, outcomeLabel(out, err), time.Since(start))

		if err != nil {
			s.writeExecutorError(w, err)
			return
		}

		if out.Kind == action.OutcomePending {
			writeJSON(w, http.StatusOK, map[string]any{
				"requires_confirmation": true,
				"pending_action_id":     out.PendingID,
			})
			return
		}

		writeJSON(w, http.StatusOK, s.decorateResponse(name, out))
	}
}

// decorateResponse merges the tool's response object with the gateway's
// envelope fields: idempotent tools carry the replay marker, risk-gated
// tools carry requires_confirmation=false when they executed directly.
func (s *Server) decorateResponse(name string, out action.Outcome) any {
	var payload map[string]any
	if err := json.Unmarshal(out.Response, &payload); err != nil {
		// Non-object tool response; return it untouched.
		return out.Response
	}

	t, err := s.registry.Get(name)
	if err != nil {
		return payload
	}

	if t.Idempotent() {
		payload["idempotent_replay"] = out.Replay()
	}
	if t.Risk().RequiresConfirmation() {
		payload["requires_confirmation"] = false
	}
	return payload
}

// outcomeLabel maps an invocation result onto a metrics label.
func outcomeLabel(out action.Outcome, err error) string {
	if err != nil {
		switch {
		case errors.Is(err, tool.ErrPolicyDenied):
			return "policy_denied"
		case errors.Is(err, action.ErrConflict):
			return "conflict"
		default:
			return "error"
		}
	}
	return string(out.Kind)
}

// writeExecutorError translates core errors onto HTTP status codes.
func (s *Server) writeExecutorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tool.ErrPolicyDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, tool.ErrToolNotFound),
		errors.Is(err, crm.ErrCustomerNotFound),
		errors.Is(err, action.ErrPendingNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, action.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, crm.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, action.ErrUnknownAction):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		if _, ok := action.IsAlreadyResolved(err); ok {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error("tool invocation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleConfirm resolves a pending action: approve executes the stored
// payload, reject is a recorded no-op.
func (s *Server) handleConfirm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "missing pending action id")
			return
		}

		approve := true
		if r.Body != nil {
			var in struct {
				Approve *bool `json:"approve"`
			}
			if err := json.NewDecoder(r.Body).Decode(&in); err == nil && in.Approve != nil {
				approve = *in.Approve
			}
		}

		out, err := s.executor.Resolve(r.Context(), id, approve)
		if err != nil {
			s.writeExecutorError(w, err)
			return
		}

		resp := map[string]any{
			"ok":     true,
			"status": string(out.Kind),
		}
		if len(out.Response) > 0 {
			var payload map[string]any
			if err := json.Unmarshal(out.Response, &payload); err == nil {
				for k, v := range payload {
					resp[k] = v
				}
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

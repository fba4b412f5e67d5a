package gateway

import "net/http"

// handleListTools serves the discovery document: every registered tool with
// its risk level, idempotency capability, and schemas.
func (s *Server) handleListTools() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"tools": s.registry.Descriptors(),
		})
	}
}

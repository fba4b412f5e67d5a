package gateway

import (
	"net/http"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"` // "ok" or "degraded"
	Version string `json:"version"`
	Tools   int    `json:"tools"`
}

// handleHealth reports liveness. Returns 503 when the store is unreachable.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:  "ok",
			Version: s.version,
			Tools:   len(s.registry.Names()),
		}

		status := http.StatusOK
		if s.store != nil {
			if err := s.store.Ping(r.Context()); err != nil {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}

		writeJSON(w, status, resp)
	}
}

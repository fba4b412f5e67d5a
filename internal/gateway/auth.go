package gateway

import (
	"crypto/subtle"
	"net/http"

	"github.com/opsgate/opsgate/internal/security"
)

// authMiddleware validates the X-API-Key header using constant-time
// comparison and applies the per-key rate limit. Auth outcomes are audited.
func (s *Server) authMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" || !constantTimeEqual(key, s.config.APIKey) {
				s.emitAuthEvent(security.EventAuthFailure, r, "invalid or missing X-API-Key")
				writeError(w, http.StatusUnauthorized, "invalid or missing X-API-Key")
				return
			}

			if s.limiter != nil {
				if err := s.limiter.Allow(key); err != nil {
					s.audit.Log(security.AuditEvent{
						Type:   security.EventRateLimit,
						Detail: "request rate limit exceeded",
						Metadata: map[string]string{
							"path": r.URL.Path,
						},
					})
					writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
					return
				}
			}

			s.emitAuthEvent(security.EventAuthSuccess, r, "api key")
			next.ServeHTTP(w, r)
		})
	}
}

// emitAuthEvent logs an auth event to the audit logger if available.
func (s *Server) emitAuthEvent(eventType security.EventType, r *http.Request, detail string) {
	s.audit.Log(security.AuditEvent{
		Type:   eventType,
		Detail: detail,
		Metadata: map[string]string{
			"remote_addr": r.RemoteAddr,
			"method":      r.Method,
			"path":        r.URL.Path,
		},
	})
}

// constantTimeEqual compares two strings in constant time.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

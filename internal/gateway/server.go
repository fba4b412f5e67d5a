package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the chi mux with all routes wired.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public, no auth required.
	r.Get("/health", s.handleHealth())
	r.Get("/metrics", s.metrics.Handler().ServeHTTP)

	// Everything else needs the API key. Not mounted without one.
	if s.config.APIKey != "" {
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware())
			r.Post("/tools/{tool}", s.handleInvokeTool())
			r.Post("/confirm/{id}", s.handleConfirm())
			r.Get("/tools", s.handleListTools())
			r.Get("/ws/events", s.hub.ServeHTTP)
		})
	}

	return r
}

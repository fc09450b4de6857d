package server

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.health)

		r.Route("/design-sessions", func(r chi.Router) {
			r.Post("/", s.createSession)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.getSessionDetails)
				r.Post("/edit", s.editSession)
				r.Get("/history", s.getSessionHistory)
				r.Get("/diff", s.getVersionDiff)
				r.Post("/complete", s.completeSession)
				r.Get("/integrity", s.getSessionIntegrity)
				r.Get("/metrics", s.getSessionMetrics)
			})
		})

		r.Get("/users/{userID}/sessions", s.getUserSessions)
	})
}

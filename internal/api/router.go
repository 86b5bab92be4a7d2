package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Agent protocol
		r.Post("/register", s.handleRegister)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/list", s.handleList)

		// Operator actions
		r.Post("/ping", s.handlePing)
		r.Post("/reset", s.handleReset)
		r.Get("/agents/{mac}", s.handleGetAgent)

		// Monitoring
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/display", s.handleDisplay)
		r.Get("/audit", s.handleListAuditLogs)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

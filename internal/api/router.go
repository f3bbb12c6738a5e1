package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds each component check of /health.
const healthCheckTimeout = 3 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Get("/state", s.handleGetState)
		r.Post("/state/refresh", s.handleRefreshState)

		r.Get("/ports", s.handleListPorts)
		r.Post("/connection", s.handleConnect)
		r.Delete("/connection", s.handleDisconnect)

		r.Route("/modes", func(r chi.Router) {
			r.Put("/", s.handleWriteModes)
			r.Delete("/", s.handleClearModes)

			r.Route("/{key}", func(r chi.Router) {
				r.Put("/", s.handleWriteMode)
				r.Delete("/", s.handleDeleteMode)
				r.Get("/colors", s.handleModeColors)
				r.Post("/activate", s.handleActivateMode)
			})
		})

		r.Post("/pad/home", s.handleHome)
		r.Put("/colors/{key}", s.handleSetColor)

		r.Get("/commands", s.handleListCommands)
		r.Post("/commands", s.handleCommand)
		r.Get("/journal", s.handleListJournal)

		r.Get("/ws", s.handleWebSocket)
	})

	if s.ui != nil {
		r.Handle("/*", s.ui)
	}

	return r
}

// handleHealth reports the server and every configured component.
// Any failing component makes the response 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]string, len(s.checks))
	status, code := "ok", http.StatusOK

	for name, check := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := check.HealthCheck(ctx)
		cancel()
		if err != nil {
			components[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"connection": s.store.Connection(),
		"components": components,
	})
}

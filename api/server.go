/*
server.go - HTTP server setup and routing

PURPOSE:
  Configures the chi router, middleware stack, and route registration.
  Every /api route requires a session; role checks live in the service
  so the router stays a pure wiring concern.

MIDDLEWARE STACK (order matters):
  1. RequestID - Request tracing
  2. RealIP    - Client IP extraction
  3. Logger    - Request logging
  4. Recoverer - Panic recovery
  5. CORS      - Browser clients on other origins
  6. RequireSession - per /api group

SEE ALSO:
  - handlers.go: The handlers registered here
  - auth.go:     Session middleware
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter assembles the full route tree.
func NewRouter(h *Handler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireSession(h.Sessions))

		r.Route("/shifts", func(r chi.Router) {
			r.Post("/start", h.StartShift)
			r.Post("/end", h.EndShift)
			r.Get("/active", h.ActiveShift)
			r.Post("/force-end", h.BatchForceEnd)
			r.Post("/{id}/force-end", h.ForceEndShift)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.CreateEntry)
			r.Put("/{id}", h.EditEntry)
			r.Delete("/{id}", h.DeleteEntry)
		})

		r.Get("/report", h.QueryReport)
		r.Get("/report/stream", h.StreamReport)
		r.Get("/snapshot", h.Snapshot)
		r.Get("/employees", h.ListEmployees)
	})

	return r
}

/*
Package api
File: router.go
Description:
    Registers the REST, lobby and session socket routes on a chi router.
*/

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter wires every REST and socket endpoint onto a chi router.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.Catalog)
		r.Get("/tuning", h.Tuning)

		r.Get("/sessions", h.ListSessions)
		r.Post("/sessions", h.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)
			r.Post("/tap", h.Tap)
			r.Post("/accept", h.Accept)
			r.Post("/pause", h.Pause)
		})
	})

	r.Get("/ws/lobby", h.ServeLobby)
	r.Get("/ws/sessions/{id}", h.ServeSession)

	return r
}

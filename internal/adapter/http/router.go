// Package http exposes the read-side adapter described in spec.md §4's
// "external adapter contracts": a JSON API over the message store plus a
// WebSocket push channel fed by the store's broadcaster.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/savegress/hl7forge/internal/mllp"
	"github.com/savegress/hl7forge/internal/store"
)

// Server wraps the chi router serving hl7forge's read-side API.
type Server struct {
	router   chi.Router
	handlers *Handlers
}

// NewServer builds a Server backed by st for reads and stats for the
// /api/stats endpoint.
func NewServer(st *store.Store, stats *mllp.Stats, mllpPort int) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		handlers: NewHandlers(st, stats, mllpPort),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HealthCheck)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/messages", s.handlers.ListMessages)
		r.Get("/messages/{id}", s.handlers.GetMessage)
		r.Get("/search", s.handlers.SearchMessages)
		r.Get("/stats", s.handlers.GetStats)
		r.Post("/clear", s.handlers.ClearMessages)
	})

	s.router.Get("/ws", s.handlers.Subscribe)
}

// Router returns the chi router as a plain http.Handler.
func (s *Server) Router() http.Handler {
	return s.router
}

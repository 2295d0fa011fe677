/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/profiles/*      Profiles, their categories, items, and months
  /api/categories/*    Category deletion
  /api/items/*         Item access by id + occurrence preview
  /api/transactions/*  Ledger entry mutators

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Profile routes
		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", h.ListProfiles)
			r.Post("/", h.CreateProfile)
			r.Get("/{id}", h.GetProfile)
			r.Delete("/{id}", h.DeleteProfile)

			r.Get("/{id}/categories", h.ListCategories)
			r.Post("/{id}/categories", h.CreateCategory)

			r.Get("/{id}/items", h.ListItems)
			r.Post("/{id}/items", h.CreateItem)

			// Reconciled month view: the core operation of the system.
			r.Get("/{id}/months/{year}/{month}", h.GetMonth)
		})

		// Category routes
		r.Route("/categories", func(r chi.Router) {
			r.Delete("/{id}", h.DeleteCategory)
		})

		// Budget item routes
		r.Route("/items", func(r chi.Router) {
			r.Get("/{id}", h.GetItem)
			r.Put("/{id}", h.UpdateItem)
			r.Delete("/{id}", h.DeleteItem)
			r.Get("/{id}/occurrences", h.ItemOccurrences)
		})

		// Transaction routes
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/{id}/toggle", h.ToggleTransaction)
			r.Put("/{id}/amount", h.SetTransactionAmount)
		})
	})

	return r
}

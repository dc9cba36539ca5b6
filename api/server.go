/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (zap)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend
  5. Auth:       Bearer token on every route except /api/health

ROLE GATES:
  ADMIN, MANAGER  create/update stock, create/update supplier,
                  create/delete purchase, create/update/delete expense
  ADMIN           delete stock, delete supplier
  any caller      reads, reports, usages

SEE ALSO:
  - handlers.go: Handler implementations
  - auth/middleware.go: Authenticate, RequireRole
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/inventory-engine/auth"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, tokens *auth.TokenManager, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	managers := auth.RequireRole(auth.RoleAdmin, auth.RoleManager)
	admins := auth.RequireRole(auth.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(tokens))
			r.Use(recordCaller)

			// Purchase routes
			r.Route("/purchases", func(r chi.Router) {
				r.Get("/", h.ListPurchases)
				r.Get("/{id}", h.GetPurchase)
				r.With(managers).Post("/", h.CreatePurchase)
				r.With(managers).Delete("/{id}", h.DeletePurchase)
			})

			// Usage routes
			r.Route("/usages", func(r chi.Router) {
				r.Get("/", h.ListUsages)
				r.Get("/{id}", h.GetUsage)
				r.Post("/", h.CreateUsage)
				r.Put("/{id}", h.UpdateUsage)
				r.Delete("/{id}", h.DeleteUsage)
			})

			// Stock routes
			r.Route("/stocks", func(r chi.Router) {
				r.Get("/", h.ListStocks)
				r.Get("/low", h.ListLowStock)
				r.Get("/{id}", h.GetStock)
				r.With(managers).Post("/", h.CreateStock)
				r.With(managers).Put("/{id}", h.UpdateStock)
				r.With(admins).Delete("/{id}", h.DeleteStock)
			})

			// Supplier routes
			r.Route("/suppliers", func(r chi.Router) {
				r.Get("/", h.ListSuppliers)
				r.Get("/{id}", h.GetSupplier)
				r.With(managers).Post("/", h.CreateSupplier)
				r.With(managers).Put("/{id}", h.UpdateSupplier)
				r.With(admins).Delete("/{id}", h.DeleteSupplier)
			})

			// Expense routes
			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", h.ListExpenses)
				r.Get("/{id}", h.GetExpense)
				r.With(managers).Post("/", h.CreateExpense)
				r.With(managers).Put("/{id}", h.UpdateExpense)
				r.With(managers).Delete("/{id}", h.DeleteExpense)
			})

			// Report routes
			r.Get("/reports/monthly", h.MonthlyReport)
		})
	})

	return r
}

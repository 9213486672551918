/**
 * @description
 * This file sets up the HTTP router for the admin-service using the `chi`
 * routing library. It defines all the API routes and applies the CORS and
 * authentication middleware.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: The routing library.
 * - github.com/go-chi/cors: CORS middleware for the console frontend.
 */
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/transfa/admin-service/internal/config"
)

// NewRouter creates and configures a new HTTP router.
func NewRouter(cfg *config.Config, handlers *AdminHandlers) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOriginList(),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Clerk-User-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.ClerkJWKSURL))

		r.Route("/admin/accounts", func(r chi.Router) {
			r.Get("/", handlers.ListAccounts)
			r.Post("/kyc/bulk", handlers.BulkKYC)
			r.Patch("/{id}/kyc", handlers.UpdateKYC)
			r.Patch("/{id}/role", handlers.UpdateRole)
			r.Delete("/{id}", handlers.DeleteAccount)
			r.Get("/{id}/busy", handlers.Busy)
			r.Get("/{id}/documents", handlers.Documents)
		})
	})

	return r
}

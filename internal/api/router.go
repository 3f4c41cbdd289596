package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/lukewarren/dashboard-auth/internal/api/handlers"
	"github.com/lukewarren/dashboard-auth/internal/api/middleware"
	"github.com/lukewarren/dashboard-auth/internal/config"
	"github.com/lukewarren/dashboard-auth/internal/metrics"
	"github.com/lukewarren/dashboard-auth/internal/service"
)

func NewRouter(services *service.Services, collector *metrics.Collector, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS(cfg.AllowedOrigin))
	r.Use(collector.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", collector.Handler())

	authHandler := handlers.NewAuthHandler(services.Auth, services.Session, collector, cfg.IsProduction())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestGuard(services.Session))

		// Form actions
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		// OAuth redirect round-trip
		r.Get("/login/github", authHandler.GitHubLogin)
		r.Get("/login/github/callback", authHandler.GitHubCallback)

		r.Route("/api", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/me", authHandler.Me)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Use(middleware.RequireAdmin)
				r.Get("/admin/users", authHandler.ListUsers)
			})
		})
	})

	return r
}

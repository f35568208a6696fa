package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Rrens/movie-catalog/internal/api/handler"
	customMiddleware "github.com/Rrens/movie-catalog/internal/api/middleware"
	"github.com/Rrens/movie-catalog/internal/config"
	"github.com/Rrens/movie-catalog/internal/metrics"
	"github.com/Rrens/movie-catalog/internal/service"
)

// Dependencies are the wired services the router exposes
type Dependencies struct {
	AuthService    *service.AuthService
	CatalogService *service.CatalogService

	// Optional
	Metrics     *metrics.Collector
	RateLimiter customMiddleware.Limiter
	Ready       map[string]handler.Pinger
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.MiddlewareTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))
	}
	if deps.Metrics != nil {
		r.Use(customMiddleware.Metrics(deps.Metrics))
	}

	// CORS preflight; simple responses set their headers in the response package
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handler.NewAuthHandler(deps.AuthService)
	movieHandler := handler.NewMovieHandler(deps.CatalogService)

	r.Get("/health", handler.HealthCheck)
	r.Get("/ready", handler.ReadyCheck(deps.Ready))
	if deps.Metrics != nil && cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, deps.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		if deps.RateLimiter != nil && cfg.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimitMiddleware(deps.RateLimiter).Limit)
		}
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.Route("/movies", func(r chi.Router) {
		r.Get("/", movieHandler.List)
		r.Get("/{movieID}", movieHandler.Get)
	})

	return r
}

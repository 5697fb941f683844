// Package api wires the HTTP surface: routing, middleware order, and CORS.
package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/joeychilson/chat/internal/api/middleware"
	"github.com/joeychilson/chat/internal/handlers"
	"github.com/joeychilson/chat/internal/store"
)

// RouterConfig holds the router's dependencies and settings.
type RouterConfig struct {
	Handler     *handlers.Handler
	Store       store.Store
	Redis       *redis.Client
	Logger      zerolog.Logger
	RateLimiter middleware.RateLimiterConfig
}

// NewRouter creates and configures the HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(25 * 1024 * 1024)) // room for file uploads
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(chimw.Recoverer)

	// Rate limiting
	limiter := middleware.NewRateLimiter(cfg.Redis, cfg.Logger, cfg.RateLimiter)
	r.Use(limiter.Middleware)

	// CORS - the web client may be served from another origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := cfg.Handler
	auth := middleware.NewAuthMiddleware(cfg.Store)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/health", h.Health)
	r.Get("/api/models", h.ListModels)

	// Authenticated routes (require a valid session)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Post("/api/generate", h.Generate)

		r.Get("/api/chats", h.ListChats)
		r.Get("/api/chats/{id}", h.GetChat)
		r.Patch("/api/chats/{id}", h.UpdateChat)
		r.Delete("/api/chats/{id}", h.DeleteChat)
		r.Get("/api/chats/{id}/stream", h.ResumeStream)

		r.Post("/api/branch", h.Branch)
		r.Post("/api/retry", h.Retry)

		r.Delete("/api/messages/{id}", h.DeleteMessage)

		r.Post("/api/files", h.UploadFile)
		r.Get("/api/files", h.ListFiles)
		r.Delete("/api/files", h.DeleteFiles)
		r.Get("/api/files/*", h.ServeFile)

		r.Get("/api/creations", h.ListCreations)
		r.Delete("/api/creations/{id}", h.DeleteCreation)

		r.Get("/api/settings", h.GetSettings)
		r.Put("/api/settings", h.UpdateSettings)

		r.Get("/api/search", h.SearchChats)
	})

	return r
}

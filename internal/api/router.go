package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/namahsea/sellmo-landing-page/internal/api/middleware"
	"github.com/namahsea/sellmo-landing-page/internal/handlers"
	"github.com/namahsea/sellmo-landing-page/internal/store"
)

// Options carries router settings that come from configuration.
type Options struct {
	StaticDir string
	RateLimit middleware.RateLimiterConfig
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, redisStore *store.RedisStore, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting (pass-through without Redis)
	limiter := middleware.NewRateLimiter(redisStore.Client(), logger, opts.RateLimit)
	r.Use(limiter.Middleware)

	// CORS - the signup relay is callable from any origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	static := staticDir(opts.StaticDir)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Landing page
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, static+"/index.html")
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(static))))

	r.Get("/health", h.Health)
	r.Get("/api", h.Root)
	r.Get("/api/intro", h.Intro)

	// The relay answers every method itself; the Netlify path keeps old
	// form actions working.
	r.HandleFunc("/api/signup", h.Signup)
	r.HandleFunc("/.netlify/functions/send-confirmation", h.Signup)

	return r
}

// staticDir returns the path to static files directory.
func staticDir(configured string) string {
	if configured != "" {
		return configured
	}
	// Check if running from app directory (production container)
	if _, err := os.Stat("/app/web/static"); err == nil {
		return "/app/web/static"
	}
	return "web/static"
}

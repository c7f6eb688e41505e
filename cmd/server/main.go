package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/namahsea/sellmo-landing-page/internal/api"
	"github.com/namahsea/sellmo-landing-page/internal/api/middleware"
	"github.com/namahsea/sellmo-landing-page/internal/brevo"
	"github.com/namahsea/sellmo-landing-page/internal/config"
	"github.com/namahsea/sellmo-landing-page/internal/handlers"
	"github.com/namahsea/sellmo-landing-page/internal/notify"
	"github.com/namahsea/sellmo-landing-page/internal/relay"
	"github.com/namahsea/sellmo-landing-page/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize Redis store
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		var err error
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		logger.Info().Msg("connected to Redis")
	} else {
		logger.Warn().Msg("REDIS_URL not set, rate limiting disabled")
	}

	// Welcome email
	tmpl, err := notify.Load(cfg.WelcomeTemplatePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.WelcomeTemplatePath).Msg("welcome template invalid")
	}

	// The credential is read per request so a rotated key applies without a
	// restart; warn early if it is missing now.
	if relay.EnvKey() == "" {
		logger.Warn().Str("env", relay.APIKeyEnv).Msg("email provider credential not set, signups will fail")
	}

	sender := brevo.NewClient(cfg.BrevoBaseURL, logger.With().Str("component", "brevo").Logger())
	signupRelay := relay.New(sender, tmpl,
		relay.WithTimeout(cfg.DeliveryTimeout),
		relay.WithLogger(logger.With().Str("component", "relay").Logger()),
	)

	h := handlers.NewHandler(signupRelay, redisStore, relay.EnvKey, logger)

	// Create router
	router := api.NewRouter(logger, h, redisStore, api.Options{
		StaticDir: cfg.StaticDir,
		RateLimit: middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			SignupsPerHour:   cfg.SignupsPerHour,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
			BlockThreshold:   cfg.AutoBlockThreshold,
			BlockFor:         cfg.AutoBlockFor,
		},
	})

	// Create server. WriteTimeout leaves room for the bounded provider call.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.DeliveryTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Dur("delivery_timeout", cfg.DeliveryTimeout).
			Msg("starting Sellmo landing server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	// Redis goes last: in-flight requests still consult the rate limiter.
	if redisStore != nil {
		if err := redisStore.Close(); err != nil {
			logger.Error().Err(err).Msg("closing redis")
		}
	}

	logger.Info().Msg("server stopped")
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port      string
	Env       string
	RedisURL  string
	StaticDir string

	// Rate limiting
	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting
	SignupsPerHour     int      // per client IP
	AutoBlockEnabled   bool     // Enable auto-blocking after repeated violations
	AutoBlockThreshold int      // violations within an hour before a block
	AutoBlockFor       time.Duration

	// Email delivery. The API key itself is read per request, not here.
	BrevoBaseURL        string
	DeliveryTimeout     time.Duration
	WelcomeTemplatePath string // empty uses the built-in template
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		RedisURL:            os.Getenv("REDIS_URL"),
		StaticDir:           os.Getenv("STATIC_DIR"),
		SignupsPerHour:      getInt("SIGNUPS_PER_HOUR", 10),
		AutoBlockEnabled:    getEnv("AUTO_BLOCK_ENABLED", "false") == "true",
		AutoBlockThreshold:  getInt("AUTO_BLOCK_THRESHOLD", 10),
		AutoBlockFor:        getDuration("AUTO_BLOCK_FOR", 24*time.Hour),
		BrevoBaseURL:        getEnv("BREVO_BASE_URL", "https://api.brevo.com"),
		DeliveryTimeout:     getDuration("DELIVERY_TIMEOUT", 10*time.Second),
		WelcomeTemplatePath: os.Getenv("WELCOME_TEMPLATE_PATH"),
	}

	// Parse whitelist (comma-separated IPs or CIDRs)
	if whitelist := os.Getenv("RATE_LIMIT_WHITELIST"); whitelist != "" {
		for _, entry := range strings.Split(whitelist, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.RateLimitWhitelist = append(cfg.RateLimitWhitelist, entry)
			}
		}
	}

	// The signup endpoint is public; production must rate limit it.
	if cfg.Env == "production" && cfg.RedisURL == "" {
		panic("REDIS_URL is required in production")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

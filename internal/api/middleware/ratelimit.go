package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/namahsea/sellmo-landing-page/internal/ids"
	"github.com/namahsea/sellmo-landing-page/internal/metrics"
)

const (
	DefaultSignupsPerHour = 10
	DefaultBlockThreshold = 10
	DefaultBlockFor       = 24 * time.Hour

	violationWindow = time.Hour
)

// Rule limits requests matching a route prefix. Rules sharing a Name share a
// budget, so the legacy signup path cannot double the allowance.
type Rule struct {
	Name     string
	Requests int
	Window   time.Duration
}

// Decision is the outcome of one Take.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiterConfig holds configuration for the rate limiter. Zero values
// pick the defaults above.
type RateLimiterConfig struct {
	Whitelist        []string // IPs or CIDRs exempt from rate limiting
	SignupsPerHour   int
	AutoBlockEnabled bool // Block IPs that keep hitting the limit
	BlockThreshold   int  // violations within an hour before a block
	BlockFor         time.Duration
}

// RateLimiter throttles signups and intro fetches per client IP with a Redis
// sliding window. A limiter without a Redis client lets every request through,
// and so does a Redis failure, which is logged and counted.
type RateLimiter struct {
	client    *redis.Client
	rules     map[string]Rule
	blocker   *IPBlocker
	logger    zerolog.Logger
	whitelist []*net.IPNet
	allowIPs  map[string]bool
	autoBlock bool
	threshold int64
	blockFor  time.Duration
	now       func() time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(client *redis.Client, logger zerolog.Logger, cfg RateLimiterConfig) *RateLimiter {
	signups := Rule{Name: "signup", Requests: positive(cfg.SignupsPerHour, DefaultSignupsPerHour), Window: time.Hour}

	rl := &RateLimiter{
		client:    client,
		blocker:   NewIPBlocker(client),
		logger:    logger,
		allowIPs:  make(map[string]bool),
		autoBlock: cfg.AutoBlockEnabled,
		threshold: int64(positive(cfg.BlockThreshold, DefaultBlockThreshold)),
		blockFor:  DefaultBlockFor,
		now:       time.Now,
		rules: map[string]Rule{
			"POST /api/signup": signups,
			"POST /.netlify/":  signups,
			"GET /api/intro":   {Name: "intro", Requests: 120, Window: time.Minute},
		},
	}
	if cfg.BlockFor > 0 {
		rl.blockFor = cfg.BlockFor
	}

	for _, entry := range cfg.Whitelist {
		if !strings.Contains(entry, "/") {
			rl.allowIPs[entry] = true
			continue
		}
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			logger.Warn().Str("entry", entry).Err(err).Msg("invalid CIDR in whitelist")
			continue
		}
		rl.whitelist = append(rl.whitelist, ipNet)
	}

	if len(cfg.Whitelist) > 0 {
		logger.Info().
			Int("ips", len(rl.allowIPs)).
			Int("cidrs", len(rl.whitelist)).
			Msg("rate limit whitelist configured")
	}

	return rl
}

func positive(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func (rl *RateLimiter) isWhitelisted(ipStr string) bool {
	if rl.allowIPs[ipStr] {
		return true
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, ipNet := range rl.whitelist {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// RealIP extracts the real client IP from headers or connection.
func RealIP(r *http.Request) string {
	// Netlify and Fly.io set the client IP directly
	if ip := r.Header.Get("X-Nf-Client-Connection-Ip"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("Fly-Client-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func windowKey(rule Rule, ip string) string {
	return "sellmo:ratelimit:" + rule.Name + ":" + ip
}

// Take records a hit against key and reports whether it fits in the rule's
// window. Rejected hits are recorded too, so a client hammering the endpoint
// stays throttled. On a Redis error the hit is allowed and the error returned.
func (rl *RateLimiter) Take(ctx context.Context, key string, rule Rule) (Decision, error) {
	now := rl.now()
	d := Decision{Allowed: true, Limit: rule.Requests, Remaining: rule.Requests, ResetAt: now.Add(rule.Window)}

	pipe := rl.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(now.Add(-rule.Window).UnixMilli(), 10))
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: ids.NewULID()})
	pipe.PExpire(ctx, key, rule.Window)

	start := time.Now()
	_, err := pipe.Exec(ctx)
	metrics.RedisLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return d, fmt.Errorf("rate limit %s: %w", key, err)
	}

	count := int(countCmd.Val())
	d.Allowed = count < rule.Requests
	d.Remaining = max(rule.Requests-count-1, 0)
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		d.ResetAt = time.UnixMilli(int64(oldest[0].Score)).Add(rule.Window)
	}
	return d, nil
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := RealIP(r)

		if rl.client == nil || rl.isWhitelisted(ip) {
			next.ServeHTTP(w, r)
			return
		}

		blocked, err := rl.blocker.IsBlocked(r.Context(), ip)
		if err != nil {
			rl.redisFailure(err, "block lookup")
		}
		if blocked {
			metrics.BlockedRequests.WithLabelValues("ip_blocked").Inc()
			rl.logger.Warn().
				Str("type", "security").
				Str("event", "blocked_request").
				Str("ip", ip).
				Str("endpoint", r.URL.Path).
				Msg("blocked IP attempted request")
			writeLimitError(w, http.StatusForbidden, "temporarily blocked")
			return
		}

		rule, ok := rl.ruleFor(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		d, err := rl.Take(r.Context(), windowKey(rule, ip), rule)
		if err != nil {
			rl.redisFailure(err, "sliding window")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			retry := math.Ceil(d.ResetAt.Sub(rl.now()).Seconds())
			w.Header().Set("Retry-After", strconv.Itoa(max(int(retry), 1)))

			metrics.RateLimitHits.WithLabelValues(rule.Name).Inc()
			rl.logger.Warn().
				Str("type", "security").
				Str("event", "rate_limit_exceeded").
				Str("ip", ip).
				Str("rule", rule.Name).
				Msg("rate limit exceeded")
			rl.recordViolation(r.Context(), ip)

			writeLimitError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeLimitError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, msg)
}

func (rl *RateLimiter) redisFailure(err error, op string) {
	metrics.RateLimitErrors.WithLabelValues(op).Inc()
	rl.logger.Error().Err(err).Str("op", op).Msg("rate limiter redis failure, allowing request")
}

// ruleFor returns the rule for a request. The longest matching prefix wins.
func (rl *RateLimiter) ruleFor(r *http.Request) (Rule, bool) {
	key := r.Method + " " + r.URL.Path

	var match Rule
	matched := 0
	for pattern, rule := range rl.rules {
		if strings.HasPrefix(key, pattern) && len(pattern) > matched {
			match, matched = rule, len(pattern)
		}
	}
	return match, matched > 0
}

// recordViolation counts limit hits per IP over an hour and blocks the IP
// once the count reaches the threshold.
func (rl *RateLimiter) recordViolation(ctx context.Context, ip string) {
	if !rl.autoBlock {
		return
	}

	key := "sellmo:violations:" + ip
	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, violationWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.redisFailure(err, "violation count")
		return
	}
	if incr.Val() < rl.threshold {
		return
	}

	if err := rl.blocker.Block(ctx, ip, rl.blockFor, "repeated signup rate limit violations"); err != nil {
		rl.redisFailure(err, "block")
		return
	}
	rl.logger.Warn().
		Str("type", "security").
		Str("event", "ip_auto_blocked").
		Str("ip", ip).
		Int64("violations", incr.Val()).
		Dur("block_for", rl.blockFor).
		Msg("IP auto-blocked for repeated violations")
}

// IPBlocker manages temporary IP blocks.
type IPBlocker struct {
	client *redis.Client
}

// NewIPBlocker creates a new IP blocker.
func NewIPBlocker(client *redis.Client) *IPBlocker {
	return &IPBlocker{client: client}
}

func blockKey(ip string) string {
	return "sellmo:blocked:" + ip
}

// IsBlocked reports whether ip is currently blocked.
func (b *IPBlocker) IsBlocked(ctx context.Context, ip string) (bool, error) {
	n, err := b.client.Exists(ctx, blockKey(ip)).Result()
	return n > 0, err
}

// Block blocks ip for d, recording reason as the key's value.
func (b *IPBlocker) Block(ctx context.Context, ip string, d time.Duration, reason string) error {
	return b.client.Set(ctx, blockKey(ip), reason, d).Err()
}

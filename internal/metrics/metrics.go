package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sellmo_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sellmo_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	SignupOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sellmo_signup_outcomes_total",
			Help: "Signup relay invocations by terminal state",
		},
		[]string{"outcome", "origin"},
	)

	IntroTimelinesServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sellmo_intro_timelines_served_total",
			Help: "Chat intro timelines handed to the landing page",
		},
	)

	// Email provider metrics
	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sellmo_delivery_duration_seconds",
			Help:    "Transactional email provider call latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"result"}, // "ok", "rejected" or "transport_error"
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sellmo_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"rule"},
	)

	RateLimitErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sellmo_rate_limit_errors_total",
			Help: "Redis failures in the rate limiter; the request is allowed",
		},
		[]string{"op"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sellmo_blocked_requests_total",
			Help: "Total blocked requests",
		},
		[]string{"reason"},
	)

	// Infrastructure metrics
	RedisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sellmo_redis_latency_seconds",
			Help:    "Redis operation latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		},
	)
)

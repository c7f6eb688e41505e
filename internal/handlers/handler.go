package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/namahsea/sellmo-landing-page/internal/relay"
	"github.com/namahsea/sellmo-landing-page/internal/sequencer"
	"github.com/namahsea/sellmo-landing-page/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	relay      *relay.Relay
	redis      *store.RedisStore
	timeline   []sequencer.Entry
	transition time.Duration
	apiKey     relay.KeyFunc
	logger     zerolog.Logger
}

// NewHandler creates a new Handler. redis may be nil when rate limiting is off.
func NewHandler(rl *relay.Relay, redis *store.RedisStore, apiKey relay.KeyFunc, logger zerolog.Logger) *Handler {
	if apiKey == nil {
		apiKey = relay.EnvKey
	}
	return &Handler{
		relay:      rl,
		redis:      redis,
		timeline:   sequencer.DefaultTimeline(),
		transition: sequencer.DefaultTransition,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

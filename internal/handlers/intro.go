package handlers

import (
	"net/http"

	"github.com/namahsea/sellmo-landing-page/internal/ids"
	"github.com/namahsea/sellmo-landing-page/internal/metrics"
	"github.com/namahsea/sellmo-landing-page/internal/models"
	"github.com/namahsea/sellmo-landing-page/internal/sequencer"
)

// Intro hands the chat intro timeline to the landing page. Every page load
// gets a fresh run and replays from the start.
func (h *Handler) Intro(w http.ResponseWriter, r *http.Request) {
	metrics.IntroTimelinesServed.Inc()

	w.Header().Set("Cache-Control", "no-store")
	h.JSON(w, http.StatusOK, models.IntroTimeline{
		RunID:        ids.NewUUIDv7().String(),
		TransitionMs: h.transition.Milliseconds(),
		Entries:      sequencer.Wire(h.timeline),
	})
}

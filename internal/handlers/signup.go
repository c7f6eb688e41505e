package handlers

import (
	"mime"
	"net/http"
	"strings"

	"github.com/namahsea/sellmo-landing-page/internal/metrics"
	"github.com/namahsea/sellmo-landing-page/internal/models"
	"github.com/namahsea/sellmo-landing-page/internal/relay"
)

// signupDoneURL is where a native form POST lands after a confirmed signup;
// the page script opens the welcome modal when it sees the query.
const signupDoneURL = "/?signup=ok"

// Signup relays one beta signup to the email provider. Every method reaches
// the relay so non-POST requests get its JSON 405.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	resp := h.relay.Handle(r)

	origin := string(resp.Submission.Origin)
	if origin == "" {
		origin = "none"
	}
	metrics.SignupOutcomes.WithLabelValues(resp.Outcome.String(), origin).Inc()

	switch resp.Outcome {
	case relay.DeliveryConfirmed:
		if resp.Submission.Origin == models.OriginForm && wantsHTML(r) {
			http.Redirect(w, r, signupDoneURL, http.StatusSeeOther)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	case relay.DeliveryFailed:
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}

	h.JSON(w, resp.Status, resp.Body)
}

// wantsHTML reports whether the caller is a browser navigating, not a fetch.
func wantsHTML(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "text/html" {
			return true
		}
	}
	return false
}

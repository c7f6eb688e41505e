package models

// TimelineEntry identifies a DOM-bound element and the offset from sequence
// start at which it becomes visible.
type TimelineEntry struct {
	ID         string `json:"id"`
	RevealAtMs int64  `json:"reveal_at_ms"`
}

// IntroTimeline is the chat intro handed to the landing page script.
type IntroTimeline struct {
	RunID        string          `json:"run_id"`
	TransitionMs int64           `json:"transition_ms"`
	Entries      []TimelineEntry `json:"entries"`
}

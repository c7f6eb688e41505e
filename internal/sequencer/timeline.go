package sequencer

import (
	"errors"
	"fmt"
	"time"

	"github.com/namahsea/sellmo-landing-page/internal/models"
)

// DefaultTransition is how long a revealed element stays Revealing before it
// settles to Visible.
const DefaultTransition = 500 * time.Millisecond

var ErrUnorderedTimeline = errors.New("timeline offsets must be non-decreasing")

// Entry reveals one element at an offset from sequence start.
type Entry struct {
	ID       string
	RevealAt time.Duration
}

// DefaultTimeline is the landing page intro: the input pops immediately, the
// three messages follow two seconds apart, and the input is shown again once
// the last message has landed.
func DefaultTimeline() []Entry {
	return []Entry{
		{ID: InputContainer, RevealAt: 0},
		{ID: Chat1, RevealAt: 1000 * time.Millisecond},
		{ID: Chat2, RevealAt: 3000 * time.Millisecond},
		{ID: Chat3, RevealAt: 5000 * time.Millisecond},
		{ID: InputContainer, RevealAt: 5500 * time.Millisecond},
	}
}

// Validate checks that offsets are non-negative and non-decreasing.
func Validate(timeline []Entry) error {
	var prev time.Duration
	for i, e := range timeline {
		if e.ID == "" {
			return fmt.Errorf("entry %d: missing element id", i)
		}
		if e.RevealAt < 0 {
			return fmt.Errorf("entry %d (%s): negative offset %s", i, e.ID, e.RevealAt)
		}
		if e.RevealAt < prev {
			return fmt.Errorf("%w: entry %d (%s) at %s follows %s", ErrUnorderedTimeline, i, e.ID, e.RevealAt, prev)
		}
		prev = e.RevealAt
	}
	return nil
}

// Wire converts a timeline to its JSON form.
func Wire(timeline []Entry) []models.TimelineEntry {
	out := make([]models.TimelineEntry, 0, len(timeline))
	for _, e := range timeline {
		out = append(out, models.TimelineEntry{ID: e.ID, RevealAtMs: e.RevealAt.Milliseconds()})
	}
	return out
}

// Package sequencer drives the staged chat intro on the landing page: a fixed
// timeline of reveal events over a set of tracked elements, replayable from
// scratch and observable as immutable snapshots.
package sequencer

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/namahsea/sellmo-landing-page/internal/ids"
)

// ElementView is the rendered state of one tracked element.
type ElementView struct {
	ID      string `json:"id"`
	Message bool   `json:"message"`
	State   State  `json:"state"`
	Raised  bool   `json:"raised,omitempty"`
}

// Snapshot is an immutable view of the board after a state change. Version
// grows with every change, so a later snapshot always has a larger Version.
type Snapshot struct {
	RunID    uuid.UUID     `json:"run_id"`
	Version  uint64        `json:"version"`
	Anchored bool          `json:"anchored"` // message column stacks from the bottom
	Elements []ElementView `json:"elements"`
}

// State returns the state of the element with the given ID.
func (s Snapshot) State(id string) (State, bool) {
	for _, el := range s.Elements {
		if el.ID == id {
			return el.State, true
		}
	}
	return Hidden, false
}

// ShownMessages returns the IDs of messages on screen, in DOM order.
func (s Snapshot) ShownMessages() []string {
	var shown []string
	for _, el := range s.Elements {
		if el.Message && el.State.Shown() {
			shown = append(shown, el.ID)
		}
	}
	return shown
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithClock replaces the runtime clock.
func WithClock(c Clock) Option {
	return func(s *Sequencer) { s.clock = c }
}

// WithTimeline replaces DefaultTimeline.
func WithTimeline(timeline []Entry) Option {
	return func(s *Sequencer) { s.timeline = append([]Entry(nil), timeline...) }
}

// WithTransition sets how long a reveal stays Revealing. Zero reveals straight
// to Visible.
func WithTransition(d time.Duration) Option {
	return func(s *Sequencer) { s.transition = d }
}

// WithLogger attaches a logger for skipped steps and run boundaries.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Sequencer) { s.logger = logger }
}

// Sequencer schedules reveal events for a Board. Every scheduled event is
// cancellable; Start cancels the previous run before replaying.
type Sequencer struct {
	mu         sync.Mutex
	board      *Board
	clock      Clock
	timeline   []Entry
	transition time.Duration
	logger     zerolog.Logger

	runID   uuid.UUID
	version uint64
	handles []Timer
	subs    map[chan Snapshot]struct{}
}

// New creates a sequencer over board. It fails if the timeline is not ordered.
func New(board *Board, opts ...Option) (*Sequencer, error) {
	s := &Sequencer{
		board:      board,
		clock:      RealClock(),
		timeline:   DefaultTimeline(),
		transition: DefaultTransition,
		logger:     zerolog.Nop(),
		subs:       make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := Validate(s.timeline); err != nil {
		return nil, err
	}
	return s, nil
}

// Start cancels any outstanding events, hides every tracked element and
// schedules the timeline afresh. Offset-zero entries fire before Start returns.
func (s *Sequencer) Start() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.board.reset()
	s.runID = ids.NewUUIDv7()
	run := s.runID

	s.logger.Debug().Str("run_id", run.String()).Int("events", len(s.timeline)).Msg("chat intro started")

	for _, e := range s.timeline {
		if e.RevealAt > 0 {
			id := e.ID
			s.handles = append(s.handles, s.clock.AfterFunc(e.RevealAt, func() {
				s.fire(run, id)
			}))
			continue
		}
		s.revealLocked(run, e.ID)
	}
	s.publishLocked()
	return run
}

// Reset hides every tracked element. Scheduled events are left in place.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.board.reset()
	s.publishLocked()
}

// Stop cancels outstanding events without touching element state.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.runID = uuid.Nil
}

// Snapshot returns the current board state.
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every state change,
// and a func to stop receiving. A slow subscriber misses intermediate
// snapshots rather than blocking the timeline.
func (s *Sequencer) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Sequencer) fire(run uuid.UUID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A callback that lost the race with Stop or a restart.
	if run != s.runID {
		return
	}
	s.revealLocked(run, id)
	s.publishLocked()
}

func (s *Sequencer) settle(run uuid.UUID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run != s.runID {
		return
	}
	el := s.board.get(id)
	if el == nil || el.state != Revealing {
		return
	}
	el.state = Visible
	s.publishLocked()
}

func (s *Sequencer) revealLocked(run uuid.UUID, id string) {
	el := s.board.get(id)
	if el == nil {
		s.logger.Debug().Str("element", id).Msg("element not tracked, skipping reveal")
		return
	}
	if el.state.Shown() {
		return
	}

	if s.transition > 0 {
		el.state = Revealing
		s.handles = append(s.handles, s.clock.AfterFunc(s.transition, func() {
			s.settle(run, id)
		}))
	} else {
		el.state = Visible
	}

	if !el.message {
		return
	}
	raised := s.board.raiseOthers(el)
	if s.board.bubbles {
		s.board.anchored = true
	}
	s.logger.Debug().Str("element", id).Strs("raised", raised).Msg("chat message revealed")
}

func (s *Sequencer) cancelLocked() {
	for _, h := range s.handles {
		h.Stop()
	}
	s.handles = nil
}

func (s *Sequencer) snapshotLocked() Snapshot {
	return Snapshot{
		RunID:    s.runID,
		Version:  s.version,
		Anchored: s.board.anchored,
		Elements: s.board.snapshot(),
	}
}

func (s *Sequencer) publishLocked() {
	s.version++
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Drop the oldest pending snapshot so the newest always lands.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

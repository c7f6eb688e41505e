package sequencer

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func newTestSequencer(t *testing.T, board *Board, opts ...Option) (*Sequencer, *FakeClock) {
	t.Helper()
	clock := NewFakeClock()
	seq, err := New(board, append([]Option{WithClock(clock)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return seq, clock
}

func mustState(t *testing.T, snap Snapshot, id string) State {
	t.Helper()
	st, ok := snap.State(id)
	if !ok {
		t.Fatalf("element %s not tracked", id)
	}
	return st
}

func TestStartRevealsInputImmediately(t *testing.T) {
	seq, _ := newTestSequencer(t, DefaultBoard(), WithTransition(0))
	seq.Start()

	snap := seq.Snapshot()
	if st := mustState(t, snap, InputContainer); st != Visible {
		t.Fatalf("input container: expected visible, got %s", st)
	}
	if shown := snap.ShownMessages(); len(shown) != 0 {
		t.Fatalf("expected no messages shown, got %v", shown)
	}
}

func TestOneSecondRevealsOnlyFirstMessage(t *testing.T) {
	seq, clock := newTestSequencer(t, DefaultBoard())
	seq.Start()
	clock.Advance(1000 * time.Millisecond)

	shown := seq.Snapshot().ShownMessages()
	if !reflect.DeepEqual(shown, []string{Chat1}) {
		t.Fatalf("expected only chat1 shown, got %v", shown)
	}
}

func TestFullTimeline(t *testing.T) {
	seq, clock := newTestSequencer(t, DefaultBoard())
	seq.Start()
	clock.Advance(5500 * time.Millisecond)

	snap := seq.Snapshot()
	for _, id := range []string{Chat1, Chat2, Chat3, InputContainer} {
		if st := mustState(t, snap, id); st != Visible {
			t.Errorf("%s: expected visible at 5500ms, got %s", id, st)
		}
	}
	if !snap.Anchored {
		t.Error("expected message column anchored to the bottom")
	}
}

func TestRevealPassesThroughRevealing(t *testing.T) {
	seq, clock := newTestSequencer(t, DefaultBoard(), WithTransition(600*time.Millisecond))
	seq.Start()

	clock.Advance(1000 * time.Millisecond)
	if st := mustState(t, seq.Snapshot(), Chat1); st != Revealing {
		t.Fatalf("expected chat1 revealing, got %s", st)
	}

	clock.Advance(600 * time.Millisecond)
	if st := mustState(t, seq.Snapshot(), Chat1); st != Visible {
		t.Fatalf("expected chat1 visible, got %s", st)
	}
}

func TestRevealRaisesEarlierMessages(t *testing.T) {
	seq, clock := newTestSequencer(t, DefaultBoard())
	seq.Start()

	raised := func() map[string]bool {
		out := map[string]bool{}
		for _, el := range seq.Snapshot().Elements {
			out[el.ID] = el.Raised
		}
		return out
	}

	clock.Advance(1000 * time.Millisecond)
	if r := raised(); r[Chat1] {
		t.Fatal("first message must not be raised by its own reveal")
	}

	clock.Advance(2000 * time.Millisecond)
	r := raised()
	if !r[Chat1] || r[Chat2] {
		t.Fatalf("after chat2: expected only chat1 raised, got %v", r)
	}

	clock.Advance(2000 * time.Millisecond)
	r = raised()
	if !r[Chat1] || !r[Chat2] || r[Chat3] {
		t.Fatalf("after chat3: expected chat1 and chat2 raised, got %v", r)
	}
	if r[InputContainer] {
		t.Fatal("input container is never raised")
	}
}

func TestRaiseSkipsNewestRegardlessOfOrder(t *testing.T) {
	timeline := []Entry{
		{ID: Chat3, RevealAt: 100 * time.Millisecond},
		{ID: Chat1, RevealAt: 200 * time.Millisecond},
	}
	seq, clock := newTestSequencer(t, DefaultBoard(), WithTimeline(timeline), WithTransition(0))
	seq.Start()
	clock.Advance(200 * time.Millisecond)

	for _, el := range seq.Snapshot().Elements {
		switch el.ID {
		case Chat1:
			if el.Raised {
				t.Error("just revealed chat1 must not be raised")
			}
		case Chat3:
			if !el.Raised {
				t.Error("chat3 was on screen first and should be raised")
			}
		}
	}
}

func TestResetHidesEverything(t *testing.T) {
	seq, clock := newTestSequencer(t, DefaultBoard())
	seq.Start()
	clock.Advance(3200 * time.Millisecond)

	seq.Reset()
	snap := seq.Snapshot()
	for _, el := range snap.Elements {
		if el.State != Hidden {
			t.Errorf("%s: expected hidden after reset, got %s", el.ID, el.State)
		}
		if el.Raised {
			t.Errorf("%s: raised flag survived reset", el.ID)
		}
	}
	if snap.Anchored {
		t.Error("anchored flag survived reset")
	}
}

func TestRestartCancelsPreviousRun(t *testing.T) {
	seq, clock := newTestSequencer(t, DefaultBoard(), WithTransition(0))
	first := seq.Start()
	clock.Advance(500 * time.Millisecond)

	second := seq.Start()
	if first == second {
		t.Fatal("expected a fresh run id")
	}

	// The first run's chat1 event was due at 1000ms; only the second run's
	// (due at 1500ms) may reveal it.
	clock.Advance(600 * time.Millisecond)
	if shown := seq.Snapshot().ShownMessages(); len(shown) != 0 {
		t.Fatalf("stale callbacks revealed %v", shown)
	}

	clock.Advance(400 * time.Millisecond)
	if shown := seq.Snapshot().ShownMessages(); !reflect.DeepEqual(shown, []string{Chat1}) {
		t.Fatalf("expected chat1 from second run, got %v", shown)
	}
}

func TestStopCancelsPending(t *testing.T) {
	seq, clock := newTestSequencer(t, DefaultBoard())
	seq.Start()
	seq.Stop()

	if n := clock.Pending(); n != 0 {
		t.Fatalf("expected no pending callbacks, got %d", n)
	}
	clock.Advance(10 * time.Second)
	if shown := seq.Snapshot().ShownMessages(); len(shown) != 0 {
		t.Fatalf("expected nothing shown after stop, got %v", shown)
	}
}

func TestMissingElementsAreSkipped(t *testing.T) {
	seq, clock := newTestSequencer(t, NewBoard(Chat2), WithTransition(0))
	seq.Start()
	clock.Advance(6 * time.Second)

	snap := seq.Snapshot()
	if len(snap.Elements) != 1 {
		t.Fatalf("expected one tracked element, got %d", len(snap.Elements))
	}
	if st := mustState(t, snap, Chat2); st != Visible {
		t.Fatalf("expected chat2 visible, got %s", st)
	}
	if snap.Anchored {
		t.Error("board without a message column cannot be anchored")
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	seq, clock := newTestSequencer(t, DefaultBoard(), WithTransition(0))
	ch, unsubscribe := seq.Subscribe(8)
	defer unsubscribe()

	seq.Start()
	clock.Advance(1000 * time.Millisecond)

	var last Snapshot
	for len(ch) > 0 {
		last = <-ch
	}
	if st := mustState(t, last, Chat1); st != Visible {
		t.Fatalf("expected latest snapshot to show chat1, got %s", st)
	}
}

func TestSnapshotVersionsIncrease(t *testing.T) {
	seq, clock := newTestSequencer(t, DefaultBoard())
	ch, unsubscribe := seq.Subscribe(16)
	defer unsubscribe()

	seq.Start()
	clock.Advance(5500 * time.Millisecond)
	seq.Reset()

	var prev uint64
	for len(ch) > 0 {
		snap := <-ch
		if snap.Version <= prev {
			t.Fatalf("version went from %d to %d", prev, snap.Version)
		}
		prev = snap.Version
	}
	if got := seq.Snapshot().Version; got != prev {
		t.Fatalf("current snapshot version %d, last published %d", got, prev)
	}
}

func TestNewRejectsUnorderedTimeline(t *testing.T) {
	_, err := New(DefaultBoard(), WithTimeline([]Entry{
		{ID: Chat2, RevealAt: 2 * time.Second},
		{ID: Chat1, RevealAt: time.Second},
	}))
	if !errors.Is(err, ErrUnorderedTimeline) {
		t.Fatalf("expected ErrUnorderedTimeline, got %v", err)
	}
}

func TestDefaultTimelineIsOrdered(t *testing.T) {
	if err := Validate(DefaultTimeline()); err != nil {
		t.Fatal(err)
	}
	wire := Wire(DefaultTimeline())
	want := []int64{0, 1000, 3000, 5000, 5500}
	for i, e := range wire {
		if e.RevealAtMs != want[i] {
			t.Errorf("entry %d: expected %dms, got %dms", i, want[i], e.RevealAtMs)
		}
	}
}

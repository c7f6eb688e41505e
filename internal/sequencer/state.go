package sequencer

import "fmt"

// State is the presentation state of one tracked element.
type State int

const (
	Hidden State = iota
	Revealing
	Visible
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Revealing:
		return "revealing"
	case Visible:
		return "visible"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Shown reports whether the element is on screen, settled or not.
func (s State) Shown() bool {
	return s == Revealing || s == Visible
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

package sequencer

// Element IDs shared with the landing page markup.
const (
	Chat1          = "chat1"
	Chat2          = "chat2"
	Chat3          = "chat3"
	InputContainer = "chatInputContainer"
	Bubbles        = "chatBubbles"
)

type element struct {
	id      string
	message bool
	state   State
	raised  bool
}

// Board is the set of elements the sequencer tracks, in DOM order.
// Elements absent from the board are skipped without error.
type Board struct {
	order    []*element
	byID     map[string]*element
	bubbles  bool
	anchored bool
}

// NewBoard tracks the given element IDs in the order given. InputContainer is
// tracked as the input affordance and Bubbles as the message column; every
// other ID is a chat message.
func NewBoard(ids ...string) *Board {
	b := &Board{byID: make(map[string]*element)}
	for _, id := range ids {
		if id == Bubbles {
			b.bubbles = true
			continue
		}
		if _, dup := b.byID[id]; dup {
			continue
		}
		el := &element{id: id, message: id != InputContainer}
		b.order = append(b.order, el)
		b.byID[id] = el
	}
	return b
}

// DefaultBoard tracks the three intro messages, the message column and the
// input container.
func DefaultBoard() *Board {
	return NewBoard(Chat1, Chat2, Chat3, Bubbles, InputContainer)
}

func (b *Board) get(id string) *element {
	return b.byID[id]
}

func (b *Board) reset() {
	for _, el := range b.order {
		el.state = Hidden
		el.raised = false
	}
	b.anchored = false
}

// raiseOthers tags every shown message except the newest for the upward
// animation, walking DOM order.
func (b *Board) raiseOthers(newest *element) []string {
	var raised []string
	for _, el := range b.order {
		if el == newest || !el.message || !el.state.Shown() {
			continue
		}
		el.raised = true
		raised = append(raised, el.id)
	}
	return raised
}

func (b *Board) snapshot() []ElementView {
	views := make([]ElementView, 0, len(b.order))
	for _, el := range b.order {
		views = append(views, ElementView{
			ID:      el.id,
			Message: el.message,
			State:   el.state,
			Raised:  el.raised,
		})
	}
	return views
}

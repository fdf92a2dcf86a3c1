package llm

import "sync"

// History is the ordered list of turns in one conversation. It is safe for
// concurrent use.
type History struct {
	mu    sync.Mutex
	turns []Message
}

// Append adds a turn to the end of the history.
func (h *History) Append(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, m)
}

// Messages returns a copy of the turns in order.
func (h *History) Messages() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Message, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Last returns the most recent turn and false when the history is empty.
func (h *History) Last() (Message, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.turns) == 0 {
		return Message{}, false
	}
	return h.turns[len(h.turns)-1], true
}

// Pop removes and returns the most recent turn. It is used to roll back a
// user turn whose request failed.
func (h *History) Pop() (Message, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.turns) == 0 {
		return Message{}, false
	}
	last := h.turns[len(h.turns)-1]
	h.turns = h.turns[:len(h.turns)-1]
	return last, true
}

// Reset drops every turn.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}

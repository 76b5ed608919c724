package types

import (
	"fmt"
	"sync"
	"time"
)

// History is the append-only message log of a single run.
// It is written only by the scheduler; readers receive a View.
type History struct {
	runID string
	msgs  []Message
	mu    sync.RWMutex
}

// NewHistory creates an empty history for the given run.
func NewHistory(runID string) *History {
	return &History{
		runID: runID,
		msgs:  make([]Message, 0, 16),
	}
}

// RunID returns the run this history belongs to.
func (h *History) RunID() string {
	return h.runID
}

// Append stamps msg with the run ID and the next sequence number and appends
// it. The stored copy is returned.
func (h *History) Append(msg Message) (Message, error) {
	if msg.Speaker == "" {
		return Message{}, fmt.Errorf("append message: empty speaker")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	msg.RunID = h.runID
	msg.Sequence = len(h.msgs)
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	h.msgs = append(h.msgs, msg)
	return msg, nil
}

// Len returns the number of messages, seed included.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.msgs)
}

// View returns a read-only view of the messages appended so far.
// Later appends are not visible through the returned view.
func (h *History) View() View {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := len(h.msgs)
	return View{msgs: h.msgs[:n:n]}
}

// Snapshot returns a private copy of all messages.
func (h *History) Snapshot() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Message(nil), h.msgs...)
}

// View is an immutable window onto a History. The zero value is empty.
type View struct {
	msgs []Message
}

// NewView builds a view over a copy of msgs. Useful for tests and for
// participants invoked outside a scheduler.
func NewView(msgs []Message) View {
	cp := append([]Message(nil), msgs...)
	return View{msgs: cp[:len(cp):len(cp)]}
}

// Len returns the number of messages in the view.
func (v View) Len() int {
	return len(v.msgs)
}

// At returns the i-th message. It panics if i is out of range.
func (v View) At(i int) Message {
	return v.msgs[i]
}

// Last returns the most recent message, or false when the view is empty.
func (v View) Last() (Message, bool) {
	if len(v.msgs) == 0 {
		return Message{}, false
	}
	return v.msgs[len(v.msgs)-1], true
}

// Messages returns a copy of the messages in order.
func (v View) Messages() []Message {
	return append([]Message(nil), v.msgs...)
}

// Tail returns a view over the last n messages.
func (v View) Tail(n int) View {
	if n <= 0 {
		return View{}
	}
	if n >= len(v.msgs) {
		return v
	}
	return View{msgs: v.msgs[len(v.msgs)-n:]}
}

package identity

import "sync"

// Hub is an in-process Provider: the session layer reports verified sign-ins
// and sign-outs, and the hub turns them into the ordered event stream the
// binder consumes.
type Hub struct {
	mu     sync.Mutex
	events chan Event
	closed bool
}

func NewHub() *Hub {
	return &Hub{events: make(chan Event, 16)}
}

// SignIn publishes a signed-in event for a verified principal.
func (h *Hub) SignIn(u User) {
	uc := u
	h.publish(Event{User: &uc})
}

// SignOut publishes a signed-out event.
func (h *Hub) SignOut() {
	h.publish(Event{})
}

func (h *Hub) Events() <-chan Event {
	return h.events
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.events)
}

func (h *Hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	select {
	case h.events <- ev:
	default:
		// A full buffer means the binder is wedged; drop the oldest event
		// so the latest identity always wins.
		select {
		case <-h.events:
		default:
		}
		h.events <- ev
	}
}

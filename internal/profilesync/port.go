package profilesync

import "github.com/google/uuid"

// Current returns the latest published state.
func (s *Syncer) Current() State {
	var st State
	s.do(func() { st = s.state })
	return st
}

// Subscribe registers for push notification on every state change. The
// channel is buffered one deep with latest-wins delivery: a slow consumer
// sees the newest state, never a backlog of stale ones. The returned id is
// passed to Unsubscribe. On a closed syncer the channel is already closed.
func (s *Syncer) Subscribe() (string, <-chan State) {
	id := uuid.New().String()
	ch := make(chan State, 1)
	if ok := s.do(func() {
		s.subs[id] = ch
		ch <- s.state
	}); !ok {
		// Closed syncer: hand back a closed channel so consumers see the
		// end of the stream instead of idling forever.
		close(ch)
	}
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids are
// ignored.
func (s *Syncer) Unsubscribe(id string) {
	s.do(func() {
		if ch, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	})
}

// emit publishes the current state to every subscriber. Owner goroutine only.
func (s *Syncer) emit() {
	for _, ch := range s.subs {
		select {
		case ch <- s.state:
		default:
			// Replace the undelivered older state.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s.state:
			default:
			}
		}
	}
}

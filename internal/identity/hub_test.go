package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for identity event")
		return Event{}
	}
}

func TestHub_DeliversEventsInOrder(t *testing.T) {
	t.Parallel()

	h := NewHub()
	defer h.Close()

	h.SignIn(User{ID: "u1"})
	h.SignOut()
	h.SignIn(User{ID: "u2"})

	ev := recvEvent(t, h.Events())
	require.NotNil(t, ev.User)
	assert.Equal(t, "u1", ev.User.ID)

	ev = recvEvent(t, h.Events())
	assert.Nil(t, ev.User)

	ev = recvEvent(t, h.Events())
	require.NotNil(t, ev.User)
	assert.Equal(t, "u2", ev.User.ID)
}

func TestHub_CloseEndsStream(t *testing.T) {
	t.Parallel()

	h := NewHub()
	h.Close()
	_, open := <-h.Events()
	assert.False(t, open)

	// Publishing after close is a no-op, not a panic.
	h.SignIn(User{ID: "u1"})
	h.SignOut()
	h.Close()
}

func TestHub_FullBufferDropsOldest(t *testing.T) {
	t.Parallel()

	h := NewHub()
	defer h.Close()

	// Overflow the buffer without a consumer.
	for i := 0; i < 40; i++ {
		h.SignIn(User{ID: "stale"})
	}
	h.SignOut()

	// Drain: the final event must still be the sign-out.
	var last Event
	for {
		select {
		case ev := <-h.Events():
			last = ev
			continue
		case <-time.After(50 * time.Millisecond):
		}
		break
	}
	assert.Nil(t, last.User, "latest identity event must survive overflow")
}

package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessway/backend/internal/docstore"
	"github.com/accessway/backend/internal/identity"
	"github.com/accessway/backend/internal/profilesync"
)

type nopDeleter struct{}

func (nopDeleter) DeleteUser(ctx context.Context, id string) error { return nil }

func newTestManager(t *testing.T) (*Manager, *docstore.MemoryStore) {
	t.Helper()
	store := docstore.NewMemoryStore()
	m := NewManager(store, nopDeleter{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(m.Close)
	return m, store
}

func waitBound(t *testing.T, s *profilesync.Syncer, uid string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if p := s.Current().Profile; p != nil && p.ID == uid {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("syncer never bound to %s", uid)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestManager_SignInBindsSyncer(t *testing.T) {
	t.Parallel()

	m, store := newTestManager(t)
	s := m.SignIn(context.Background(), identity.User{ID: "u1", Email: "a@b.c"})
	waitBound(t, s, "u1")

	_, found, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, found, "sign-in must seed the document")

	got, ok := m.Syncer("u1")
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestManager_SignInTwiceReturnsSameSyncer(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	u := identity.User{ID: "u1"}
	s1 := m.SignIn(context.Background(), u)
	s2 := m.SignIn(context.Background(), u)
	assert.Same(t, s1, s2)
}

func TestManager_SignOutTearsDownSession(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	s := m.SignIn(context.Background(), identity.User{ID: "u1"})
	waitBound(t, s, "u1")

	m.SignOut("u1")

	_, ok := m.Syncer("u1")
	assert.False(t, ok)

	// The torn-down syncer rejects further work.
	assert.ErrorIs(t, s.Refresh(context.Background()), profilesync.ErrClosed)

	// Idempotent.
	m.SignOut("u1")
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	s1 := m.SignIn(context.Background(), identity.User{ID: "u1", DisplayName: "One"})
	s2 := m.SignIn(context.Background(), identity.User{ID: "u2", DisplayName: "Two"})
	waitBound(t, s1, "u1")
	waitBound(t, s2, "u2")

	m.SignOut("u1")
	_, ok := m.Syncer("u1")
	assert.False(t, ok)

	got, ok := m.Syncer("u2")
	require.True(t, ok)
	p := got.Current().Profile
	require.NotNil(t, p)
	assert.Equal(t, "u2", p.ID)
}

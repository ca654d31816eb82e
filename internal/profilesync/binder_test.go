package profilesync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessway/backend/internal/codec"
	"github.com/accessway/backend/internal/docstore"
	"github.com/accessway/backend/internal/identity"
)

func TestBinder_BindsOnSignInUnbindsOnSignOut(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	s := NewSyncer(store, &stubDeleter{}, discardLogger())
	defer s.Close()

	hub := identity.NewHub()
	defer hub.Close()
	b := NewBinder(s, hub, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	hub.SignIn(identity.User{ID: "u1", DisplayName: "Ada"})
	waitFor(t, func() bool {
		p := s.Current().Profile
		return p != nil && p.ID == "u1"
	})

	hub.SignOut()
	waitFor(t, func() bool { return s.Current().Profile == nil && !s.Current().Loading })
}

func TestBinder_RapidSignOutSignIn_NoCrossTalk(t *testing.T) {
	t.Parallel()

	mem := docstore.NewMemoryStore()
	require.NoError(t, mem.Set(context.Background(), "old", map[string]any{
		codec.FieldID:          "old",
		codec.FieldDisplayName: "Old User",
	}, true))

	store := &blockingStore{
		MemoryStore: mem,
		blockID:     "old",
		release:     make(chan struct{}),
	}
	s := NewSyncer(store, &stubDeleter{}, discardLogger())
	defer s.Close()

	hub := identity.NewHub()
	defer hub.Close()
	b := NewBinder(s, hub, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	// old's bind stalls in its fetch; sign-out and a new sign-in arrive
	// before it completes.
	hub.SignIn(identity.User{ID: "old"})
	waitFor(t, func() bool { return s.Current().Loading })

	hub.SignOut()
	hub.SignIn(identity.User{ID: "new", DisplayName: "New User"})
	waitFor(t, func() bool {
		p := s.Current().Profile
		return p != nil && p.ID == "new"
	})

	close(store.release)

	// old's stale result must never replace new's state.
	waitFor(t, func() bool {
		p := s.Current().Profile
		return p != nil && p.ID == "new" && p.DisplayName == "New User"
	})
	p := s.Current().Profile
	require.NotNil(t, p)
	assert.NotEqual(t, "Old User", p.DisplayName)
}

func TestBinder_StopsWhenProviderCloses(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	s := NewSyncer(store, &stubDeleter{}, discardLogger())
	defer s.Close()

	hub := identity.NewHub()
	b := NewBinder(s, hub, discardLogger())

	done := make(chan struct{})
	go func() {
		b.Run(context.Background())
		close(done)
	}()

	hub.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("binder did not stop after provider closed")
	}
}

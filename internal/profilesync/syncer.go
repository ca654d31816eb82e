// Package profilesync keeps a local, observable copy of one principal's
// profile document consistent with the remote document store. The Syncer is
// a single-writer actor: one goroutine owns the authoritative state, and
// every input (method calls, subscription pushes, async completions) is
// serialized through its command queue.
package profilesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/accessway/backend/internal/codec"
	"github.com/accessway/backend/internal/docstore"
	"github.com/accessway/backend/internal/identity"
	"github.com/accessway/backend/internal/models"
)

var (
	// ErrNoPrincipal is returned by operations that require a bound identity.
	ErrNoPrincipal = errors.New("profilesync: no principal bound")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("profilesync: syncer closed")
)

// Syncer owns the lifecycle of one remote profile document at a time.
type Syncer struct {
	store docstore.Store
	ident identity.Deleter
	log   *slog.Logger

	cmds      chan func()
	quit      chan struct{}
	closeOnce sync.Once

	// Everything below is owned by the run loop.
	principal *identity.User
	gen       uint64
	state     State
	stopWatch func()
	subs      map[string]chan State
}

func NewSyncer(store docstore.Store, ident identity.Deleter, log *slog.Logger) *Syncer {
	s := &Syncer{
		store: store,
		ident: ident,
		log:   log,
		cmds:  make(chan func(), 32),
		quit:  make(chan struct{}),
		subs:  make(map[string]chan State),
	}
	go s.run()
	return s
}

func (s *Syncer) run() {
	for {
		select {
		case fn := <-s.cmds:
			fn()
		case <-s.quit:
			if s.stopWatch != nil {
				s.stopWatch()
				s.stopWatch = nil
			}
			return
		}
	}
}

// Close tears down the watch and stops the run loop. Pending operations
// return ErrClosed.
func (s *Syncer) Close() {
	s.closeOnce.Do(func() {
		s.do(func() {
			s.teardown()
			s.principal = nil
			s.gen++
		})
		close(s.quit)
	})
}

// do runs fn on the owner goroutine and waits for it. It reports false when
// the syncer is closed.
func (s *Syncer) do(fn func()) bool {
	done := make(chan struct{})
	select {
	case s.cmds <- func() { fn(); close(done) }:
	case <-s.quit:
		return false
	}
	select {
	case <-done:
		return true
	case <-s.quit:
		return false
	}
}

// Bind attaches the syncer to a principal: fetch once, seed the document if
// absent (a merge write, safe to race with another device's seed), then open
// the live subscription. Idempotent for the currently-bound principal.
func (s *Syncer) Bind(ctx context.Context, user identity.User) error {
	if user.ID == "" {
		return ErrNoPrincipal
	}

	var (
		already   bool
		cancelled bool
		gen       uint64
	)
	ok := s.do(func() {
		// The binder cancels a superseded identity's context before acting
		// on the next event. A bind scheduled late enough to see that must
		// not take ownership from the newer principal.
		if ctx.Err() != nil {
			cancelled = true
			return
		}
		if s.principal != nil && s.principal.ID == user.ID && s.stopWatch != nil {
			already = true
			return
		}
		s.teardown()
		u := user
		s.principal = &u
		s.gen++
		gen = s.gen
		s.state = State{Loading: true}
		s.emit()
	})
	if !ok {
		return ErrClosed
	}
	if cancelled {
		return ctx.Err()
	}
	if already {
		return nil
	}

	// Remote work happens on the caller's goroutine so pushes and other
	// calls stay responsive; the generation check discards stale results.
	prof := models.NewSeedProfile(user.ID, user.Email, user.DisplayName, user.PhotoURL)
	data, found, err := s.store.Get(ctx, user.ID)
	// Fetch and seed are one step from the port's view: either failing
	// means the document was never observed, so both record SeedFailed.
	var bindErr error
	switch {
	case err != nil:
		bindErr = fmt.Errorf("profilesync: bind fetch: %w", err)
	case found:
		prof = codec.Decode(data)
	default:
		if serr := s.store.Set(ctx, user.ID, codec.Encode(prof), true); serr != nil {
			bindErr = fmt.Errorf("profilesync: seed: %w", serr)
		}
	}

	snaps, stop, werr := s.store.Watch(ctx, user.ID)

	s.do(func() {
		if s.gen != gen {
			// A rebind or unbind won the race; this bind's results are stale.
			if stop != nil {
				stop()
			}
			return
		}
		st := State{}
		if bindErr == nil {
			p := prof
			st.Profile = &p
		} else {
			st.Err = ErrCodeSeedFailed
			s.log.Error("profile seed failed", "uid", user.ID, "err", bindErr)
		}
		if werr != nil {
			st.Err = ErrCodeListenFailed
			s.log.Error("profile listen failed", "uid", user.ID, "err", werr)
		} else {
			s.stopWatch = stop
			go s.relay(gen, snaps)
		}
		s.state = st
		s.emit()
	})

	if bindErr != nil {
		return bindErr
	}
	if werr != nil {
		return fmt.Errorf("profilesync: listen: %w", werr)
	}
	return nil
}

// relay forwards live subscription pushes into the command queue. The pushed
// document is authoritative: it overwrites whatever a local commit left in
// place, and clears any recorded failure.
func (s *Syncer) relay(gen uint64, snaps <-chan docstore.Snapshot) {
	for snap := range snaps {
		snap := snap
		s.do(func() {
			if s.gen != gen {
				return
			}
			st := s.state
			st.Loading = false
			st.Err = ErrCodeNone
			if snap.Exists {
				p := codec.Decode(snap.Data)
				st.Profile = &p
			} else {
				st.Profile = nil
			}
			s.state = st
			s.emit()
		})
	}

	// Channel closed. Expected after unbind/rebind; for the current
	// generation it means the stream died, so flag it and keep the binding
	// for the caller to retry via Refresh or Bind.
	s.do(func() {
		if s.gen != gen || s.stopWatch == nil {
			return
		}
		s.stopWatch = nil
		st := s.state
		st.Err = ErrCodeListenFailed
		s.state = st
		s.emit()
		s.log.Warn("profile subscription ended unexpectedly")
	})
}

// Unbind cancels the subscription and clears local state. Idempotent.
func (s *Syncer) Unbind() {
	s.do(func() {
		s.teardown()
		s.principal = nil
		s.gen++
		s.state = State{}
		s.emit()
	})
}

// Refresh overwrites local state from a one-shot fetch, for callers that
// need confirmation without waiting on the live subscription.
func (s *Syncer) Refresh(ctx context.Context) error {
	var (
		id  string
		gen uint64
	)
	ok := s.do(func() {
		if s.principal == nil {
			return
		}
		id = s.principal.ID
		gen = s.gen
		st := s.state
		st.Loading = true
		s.state = st
		s.emit()
	})
	if !ok {
		return ErrClosed
	}
	if id == "" {
		return ErrNoPrincipal
	}

	data, found, err := s.store.Get(ctx, id)
	s.do(func() {
		if s.gen != gen {
			return
		}
		st := s.state
		st.Loading = false
		if err != nil {
			st.Err = ErrCodeRefreshFailed
		} else {
			st.Err = ErrCodeNone
			if found {
				p := codec.Decode(data)
				st.Profile = &p
			} else {
				st.Profile = nil
			}
		}
		s.state = st
		s.emit()
	})
	if err != nil {
		return fmt.Errorf("profilesync: refresh: %w", err)
	}
	return nil
}

// Save stamps UpdatedAt and writes the profile. With merge, fields absent
// from the profile's wire form are left untouched remotely; without it the
// document is replaced. Last-writer-wins: a later live push overrides the
// locally committed value.
func (s *Syncer) Save(ctx context.Context, p models.Profile, merge bool) error {
	var (
		id  string
		gen uint64
	)
	ok := s.do(func() {
		if s.principal != nil {
			id = s.principal.ID
			gen = s.gen
		}
	})
	if !ok {
		return ErrClosed
	}
	if id == "" {
		return ErrNoPrincipal
	}

	p.ID = id
	p = p.WithUpdatedAt(time.Now())

	err := s.store.Set(ctx, id, codec.Encode(p), merge)
	s.do(func() {
		if s.gen != gen {
			return
		}
		st := s.state
		if err != nil {
			st.Err = ErrCodeSaveFailed
		} else {
			st.Err = ErrCodeNone
			cp := p
			st.Profile = &cp
		}
		s.state = st
		s.emit()
	})
	if err != nil {
		return fmt.Errorf("profilesync: save: %w", err)
	}
	return nil
}

// UpdatePreferences merges a new preference set into the last-known profile.
// A set without exactly three distinct sort keys falls back to the default
// ordering, keeping its filter flags. No-op when no profile is known yet.
func (s *Syncer) UpdatePreferences(ctx context.Context, prefs models.PreferenceSet) error {
	if !prefs.Valid() {
		prefs.SortPriority = models.DefaultPreferences().SortPriority
	}
	cur := s.snapshotProfile()
	if cur == nil {
		return nil
	}
	p := *cur
	p.Preferences = prefs
	return s.Save(ctx, p, true)
}

// CompleteOnboarding marks the profile onboarded, optionally updating
// preferences and category in the same write. Onboarded is monotonic; this
// core never resets it. No-op when no profile is known yet.
func (s *Syncer) CompleteOnboarding(ctx context.Context, prefs *models.PreferenceSet, category *models.DisabilityCategory) error {
	cur := s.snapshotProfile()
	if cur == nil {
		return nil
	}
	p := *cur
	p.Onboarded = true
	if prefs != nil {
		np := *prefs
		if !np.Valid() {
			np.SortPriority = models.DefaultPreferences().SortPriority
		}
		p.Preferences = np
	}
	if category != nil {
		p.Category = *category
	}
	return s.Save(ctx, p, true)
}

// IncrementPoints adds delta to the remote counter inside a store
// transaction, so concurrent increments from other devices never lose
// updates. A missing or malformed stored value counts as zero; the result
// never goes below zero.
func (s *Syncer) IncrementPoints(ctx context.Context, delta int64) error {
	var (
		id  string
		gen uint64
	)
	ok := s.do(func() {
		if s.principal != nil {
			id = s.principal.ID
			gen = s.gen
		}
	})
	if !ok {
		return ErrClosed
	}
	if id == "" {
		return ErrNoPrincipal
	}

	var committed int64
	var committedAt time.Time
	err := s.store.Update(ctx, id, func(current map[string]any, exists bool) (map[string]any, error) {
		next := codec.Decode(current).Points + delta
		if next < 0 {
			next = 0
		}
		committed = next
		committedAt = time.Now().UTC()
		return map[string]any{
			codec.FieldPoints:    next,
			codec.FieldUpdatedAt: committedAt.Format(time.RFC3339),
		}, nil
	})

	s.do(func() {
		if s.gen != gen {
			return
		}
		st := s.state
		if err != nil {
			st.Err = ErrCodeTransactionFailed
		} else {
			st.Err = ErrCodeNone
			if st.Profile != nil {
				p := *st.Profile
				p.Points = committed
				p.UpdatedAt = &committedAt
				st.Profile = &p
			}
		}
		s.state = st
		s.emit()
	})
	if err != nil {
		return fmt.Errorf("profilesync: increment points: %w", err)
	}
	return nil
}

// DeleteAccount removes the principal: identity deletion first (a failure
// there is surfaced and aborts), then the profile document best-effort. A
// leftover document for a deleted identity is unreachable and harmless.
func (s *Syncer) DeleteAccount(ctx context.Context) error {
	var id string
	ok := s.do(func() {
		if s.principal != nil {
			id = s.principal.ID
		}
	})
	if !ok {
		return ErrClosed
	}
	if id == "" {
		return ErrNoPrincipal
	}

	if err := s.ident.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("profilesync: delete account: %w", err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.log.Warn("profile document delete failed after identity deletion", "uid", id, "err", err)
	}
	s.Unbind()
	return nil
}

func (s *Syncer) snapshotProfile() *models.Profile {
	var cur *models.Profile
	s.do(func() {
		if s.state.Profile != nil {
			p := *s.state.Profile
			cur = &p
		}
	})
	return cur
}

func (s *Syncer) teardown() {
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
}

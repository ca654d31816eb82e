// Package session owns one sync pipeline per signed-in principal: an
// identity hub feeding a binder, which drives a profile synchronizer bound
// to that principal's document.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/accessway/backend/internal/docstore"
	"github.com/accessway/backend/internal/identity"
	"github.com/accessway/backend/internal/profilesync"
)

type session struct {
	hub    *identity.Hub
	syncer *profilesync.Syncer
	cancel context.CancelFunc
}

// Manager creates and tears down per-principal sessions.
type Manager struct {
	store   docstore.Store
	deleter identity.Deleter
	log     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func NewManager(store docstore.Store, deleter identity.Deleter, log *slog.Logger) *Manager {
	return &Manager{
		store:    store,
		deleter:  deleter,
		log:      log,
		sessions: make(map[string]*session),
	}
}

// SignIn starts a session for a verified principal, binding a synchronizer
// to its document. Signing in an already-active principal republishes the
// identity event, which the binder treats as an idempotent rebind.
func (m *Manager) SignIn(ctx context.Context, user identity.User) *profilesync.Syncer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[user.ID]; ok {
		s.hub.SignIn(user)
		return s.syncer
	}

	hub := identity.NewHub()
	syncer := profilesync.NewSyncer(m.store, m.deleter, m.log.With("uid", user.ID))
	binder := profilesync.NewBinder(syncer, hub, m.log)

	runCtx, cancel := context.WithCancel(context.Background())
	go binder.Run(runCtx)

	m.sessions[user.ID] = &session{hub: hub, syncer: syncer, cancel: cancel}
	hub.SignIn(user)
	return syncer
}

// Syncer returns the active synchronizer for a principal, if signed in.
func (m *Manager) Syncer(uid string) (*profilesync.Syncer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[uid]
	if !ok {
		return nil, false
	}
	return s.syncer, true
}

// SignOut publishes the signed-out event and tears the session down.
// Idempotent; unknown principals are ignored.
func (m *Manager) SignOut(uid string) {
	m.mu.Lock()
	s, ok := m.sessions[uid]
	if ok {
		delete(m.sessions, uid)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	s.hub.SignOut()
	s.hub.Close()
	s.cancel()
	s.syncer.Close()
}

// Close tears down every active session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.hub.Close()
		s.cancel()
		s.syncer.Close()
	}
}

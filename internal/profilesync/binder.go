package profilesync

import (
	"context"
	"log/slog"

	"github.com/accessway/backend/internal/identity"
)

// Binder bridges identity-change events to the synchronizer's lifecycle:
// principal present binds, principal absent unbinds. Work started for a
// previous identity is cancelled before the next one is acted on, so a rapid
// sign-out/sign-in can never leak one principal's updates into another's
// state.
type Binder struct {
	syncer   *Syncer
	provider identity.Provider
	log      *slog.Logger
}

func NewBinder(syncer *Syncer, provider identity.Provider, log *slog.Logger) *Binder {
	return &Binder{syncer: syncer, provider: provider, log: log}
}

// Run consumes identity events until the context is cancelled or the
// provider's stream closes.
func (b *Binder) Run(ctx context.Context) {
	var cancelPrev context.CancelFunc
	defer func() {
		if cancelPrev != nil {
			cancelPrev()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-b.provider.Events():
			if !ok {
				return
			}
			if cancelPrev != nil {
				cancelPrev()
				cancelPrev = nil
			}
			if ev.User == nil {
				b.syncer.Unbind()
				continue
			}

			bindCtx, cancel := context.WithCancel(ctx)
			cancelPrev = cancel
			user := *ev.User
			go func() {
				if err := b.syncer.Bind(bindCtx, user); err != nil && err != ErrClosed {
					b.log.Warn("bind failed", "uid", user.ID, "err", err)
				}
			}()
		}
	}
}

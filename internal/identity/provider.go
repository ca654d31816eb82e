// Package identity exposes the two contracts the sync core needs from
// authentication: a stream of "current principal or absent" events, and
// deletion of the principal itself. Everything else about the auth protocol
// stays outside the core.
package identity

import "context"

// User is the identity attributes available for a signed-in principal.
// Only ID is guaranteed non-empty.
type User struct {
	ID          string
	Email       string
	DisplayName string
	PhotoURL    string
}

// Event is one identity change. A nil User means signed out.
type Event struct {
	User *User
}

// Provider is the event stream consumed by the session binder.
type Provider interface {
	// Events delivers identity changes in order. The channel is closed by
	// Close.
	Events() <-chan Event

	Close()
}

// Deleter permanently removes a principal from the identity backend. This is
// the fatal step of account deletion.
type Deleter interface {
	DeleteUser(ctx context.Context, id string) error
}

// Package docstore abstracts the remote document collection the profile
// synchronizer talks to: one document per principal, merge-or-replace
// writes, a live change subscription, and a transactional read-modify-write
// primitive for counters.
package docstore

import (
	"context"
	"errors"
)

// Snapshot is one observation of a document, pushed by Watch.
type Snapshot struct {
	Data   map[string]any
	Exists bool
}

// UpdateFunc runs inside a store transaction. It receives the current
// document (nil map when absent) and returns the field changes to commit.
// Returning an error aborts the transaction.
type UpdateFunc func(current map[string]any, exists bool) (changes map[string]any, err error)

// Store is the contract the synchronizer requires from a document backend.
type Store interface {
	// Get fetches a document once. found is false when it does not exist.
	Get(ctx context.Context, id string) (data map[string]any, found bool, err error)

	// Set writes a document. With merge, only the provided fields are set
	// (nested maps merge recursively) and other remote fields are left
	// untouched; without merge the document is replaced wholesale.
	Set(ctx context.Context, id string, data map[string]any, merge bool) error

	// Delete removes a document. Deleting an absent document is not an error.
	Delete(ctx context.Context, id string) error

	// Watch opens a live subscription that delivers the document's state on
	// every remote change, starting with its current state. stop cancels the
	// subscription and closes the channel.
	Watch(ctx context.Context, id string) (snaps <-chan Snapshot, stop func(), err error)

	// Update runs a transactional read-then-conditional-write. Conflict
	// retries are the backend's concern; only terminal failures surface.
	Update(ctx context.Context, id string, fn UpdateFunc) error

	// Close releases the backend connection.
	Close(ctx context.Context) error
}

// ErrStopped indicates an operation against a store whose connection has
// been closed.
var ErrStopped = errors.New("docstore: store closed")

// mergeInto recursively merges src into dst, matching the merge-write
// semantics of the Firestore backend. Nested maps merge key-by-key; every
// other value overwrites.
func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if cur, ok := dst[k].(map[string]any); ok {
				mergeInto(cur, sub)
				continue
			}
			cp := make(map[string]any, len(sub))
			mergeInto(cp, sub)
			dst[k] = cp
			continue
		}
		dst[k] = v
	}
}

// deepCopy clones a document so callers can never alias store-owned state.
func deepCopy(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case map[string]any:
			cp[k] = deepCopy(t)
		case []any:
			s := make([]any, len(t))
			copy(s, t)
			cp[k] = s
		default:
			cp[k] = v
		}
	}
	return cp
}

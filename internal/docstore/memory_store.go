package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and local development.
// It honors the same merge, watch, and transactional semantics as the real
// backends; Update runs its callback under the write lock, so increments
// are linearizable.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]map[string]any
	watchers map[string]map[string]chan Snapshot
	closed   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]map[string]any),
		watchers: make(map[string]map[string]chan Snapshot),
	}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (map[string]any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrStopped
	}
	doc, ok := s.docs[id]
	if !ok {
		return nil, false, nil
	}
	return deepCopy(doc), true, nil
}

func (s *MemoryStore) Set(ctx context.Context, id string, data map[string]any, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStopped
	}
	s.setLocked(id, data, merge)
	return nil
}

func (s *MemoryStore) setLocked(id string, data map[string]any, merge bool) {
	doc, ok := s.docs[id]
	if !ok || !merge {
		doc = make(map[string]any)
	}
	mergeInto(doc, deepCopy(data))
	s.docs[id] = doc
	s.notifyLocked(id)
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStopped
	}
	delete(s.docs, id)
	s.notifyLocked(id)
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context, id string) (<-chan Snapshot, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil, ErrStopped
	}

	ch := make(chan Snapshot, 16)
	key := uuid.New().String()
	if s.watchers[id] == nil {
		s.watchers[id] = make(map[string]chan Snapshot)
	}
	s.watchers[id][key] = ch

	// Initial state, like a Firestore snapshot listener.
	doc, ok := s.docs[id]
	ch <- Snapshot{Data: deepCopy(doc), Exists: ok}

	stop := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if w, ok := s.watchers[id][key]; ok {
			delete(s.watchers[id], key)
			close(w)
		}
	}
	return ch, stop, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStopped
	}
	doc, exists := s.docs[id]
	var current map[string]any
	if exists {
		current = deepCopy(doc)
	}
	changes, err := fn(current, exists)
	if err != nil {
		return err
	}
	if changes != nil {
		s.setLocked(id, changes, true)
	}
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, ws := range s.watchers {
		for key, ch := range ws {
			close(ch)
			delete(ws, key)
		}
		delete(s.watchers, id)
	}
	return nil
}

func (s *MemoryStore) notifyLocked(id string) {
	doc, ok := s.docs[id]
	for _, ch := range s.watchers[id] {
		snap := Snapshot{Data: deepCopy(doc), Exists: ok}
		select {
		case ch <- snap:
		default:
			// Slow watcher; it will catch up on the next change.
		}
	}
}

package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore keeps one document per principal in a Firestore collection.
// Merge writes, snapshot listeners, and transactions map directly onto the
// Store contract.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore wraps an existing Firestore client. The client is owned
// by the caller until Close is called on the store.
func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if collection == "" {
		collection = "profiles"
	}
	return &FirestoreStore{client: client, collection: collection}
}

func (s *FirestoreStore) doc(id string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(id)
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (map[string]any, bool, error) {
	snap, err := s.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("firestore get %s: %w", id, err)
	}
	return snap.Data(), true, nil
}

func (s *FirestoreStore) Set(ctx context.Context, id string, data map[string]any, merge bool) error {
	var err error
	if merge {
		_, err = s.doc(id).Set(ctx, data, firestore.MergeAll)
	} else {
		_, err = s.doc(id).Set(ctx, data)
	}
	if err != nil {
		return fmt.Errorf("firestore set %s: %w", id, err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, id string) error {
	if _, err := s.doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore delete %s: %w", id, err)
	}
	return nil
}

func (s *FirestoreStore) Watch(ctx context.Context, id string) (<-chan Snapshot, func(), error) {
	watchCtx, cancel := context.WithCancel(ctx)
	it := s.doc(id).Snapshots(watchCtx)

	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				// Canceled on stop; anything else ends the stream and the
				// synchronizer records a listen failure via channel close.
				return
			}
			var data map[string]any
			if snap.Exists() {
				data = snap.Data()
			}
			select {
			case out <- Snapshot{Data: data, Exists: snap.Exists()}:
			case <-watchCtx.Done():
				return
			}
		}
	}()
	return out, cancel, nil
}

func (s *FirestoreStore) Update(ctx context.Context, id string, fn UpdateFunc) error {
	ref := s.doc(id)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		exists := err == nil && snap.Exists()
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		var current map[string]any
		if exists {
			current = snap.Data()
		}
		changes, err := fn(current, exists)
		if err != nil {
			return err
		}
		if changes == nil {
			return nil
		}
		return tx.Set(ref, changes, firestore.MergeAll)
	})
	if err != nil {
		return fmt.Errorf("firestore update %s: %w", id, err)
	}
	return nil
}

func (s *FirestoreStore) Close(ctx context.Context) error {
	return s.client.Close()
}

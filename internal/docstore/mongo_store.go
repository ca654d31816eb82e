package docstore

import (
	"context"
	"crypto/tls"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps profile documents in a MongoDB collection, keyed by _id.
// Merge writes are $set upserts, the live subscription is a change stream,
// and Update runs inside a session transaction (requires a replica set).
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

// NewMongoStore connects and pings before returning, so a bad URI fails at
// startup rather than on the first profile read.
func NewMongoStore(ctx context.Context, mongoURI, dbName, collection string) (*MongoStore, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(mongoURI).
		SetTLSConfig(tlsCfg).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	if collection == "" {
		collection = "profiles"
	}
	return &MongoStore{
		client: client,
		col:    client.Database(dbName).Collection(collection),
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (map[string]any, bool, error) {
	var doc bson.M
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("mongo get %s: %w", id, err)
	}
	return fromBSON(doc), true, nil
}

func (s *MongoStore) Set(ctx context.Context, id string, data map[string]any, merge bool) error {
	var err error
	if merge {
		_, err = s.col.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": flatten("", data)},
			options.Update().SetUpsert(true),
		)
	} else {
		doc := bson.M{"_id": id}
		for k, v := range data {
			doc[k] = v
		}
		_, err = s.col.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	}
	if err != nil {
		return fmt.Errorf("mongo set %s: %w", id, err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo delete %s: %w", id, err)
	}
	return nil
}

func (s *MongoStore) Watch(ctx context.Context, id string) (<-chan Snapshot, func(), error) {
	watchCtx, cancel := context.WithCancel(ctx)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: id}}}},
	}
	stream, err := s.col.Watch(watchCtx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("mongo watch %s: %w", id, err)
	}

	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		// Change streams only carry deltas, so deliver the current state
		// first to match the contract.
		if data, found, err := s.Get(watchCtx, id); err == nil {
			select {
			case out <- Snapshot{Data: data, Exists: found}:
			case <-watchCtx.Done():
				return
			}
		}

		for stream.Next(watchCtx) {
			var ev struct {
				OperationType string `bson:"operationType"`
				FullDocument  bson.M `bson:"fullDocument"`
			}
			if err := stream.Decode(&ev); err != nil {
				continue
			}
			snap := Snapshot{}
			if ev.OperationType != "delete" && ev.FullDocument != nil {
				snap = Snapshot{Data: fromBSON(ev.FullDocument), Exists: true}
			}
			select {
			case out <- snap:
			case <-watchCtx.Done():
				return
			}
		}
	}()
	return out, cancel, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, fn UpdateFunc) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		var doc bson.M
		findErr := s.col.FindOne(sc, bson.M{"_id": id}).Decode(&doc)
		exists := findErr == nil
		if findErr != nil && findErr != mongo.ErrNoDocuments {
			return nil, findErr
		}
		var current map[string]any
		if exists {
			current = fromBSON(doc)
		}
		changes, err := fn(current, exists)
		if err != nil {
			return nil, err
		}
		if changes == nil {
			return nil, nil
		}
		_, err = s.col.UpdateOne(sc,
			bson.M{"_id": id},
			bson.M{"$set": flatten("", changes)},
			options.Update().SetUpsert(true),
		)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("mongo update %s: %w", id, err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// flatten turns nested maps into dotted $set paths so a merge write touches
// leaf fields instead of replacing whole sub-documents. That keeps racing
// seed and preference writes from clobbering each other.
func flatten(prefix string, data map[string]any) bson.M {
	out := bson.M{}
	for k, v := range data {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			for fk, fv := range flatten(key, sub) {
				out[fk] = fv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// fromBSON converts driver-decoded values into the plain shapes the codec
// expects: primitive.A to []any, primitive.DateTime to time.Time, nested
// documents to map[string]any. The _id key is dropped; the wire schema
// carries its own id field.
func fromBSON(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		out[k] = normalizeBSONValue(v)
	}
	return out
}

func normalizeBSONValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, sv := range t {
			out[k] = normalizeBSONValue(sv)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalizeBSONValue(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(t))
		for i, sv := range t {
			out[i] = normalizeBSONValue(sv)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}

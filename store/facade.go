package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Notifier receives user-facing failure copy. The HTTP layer implements it
// as a toast-style response message; tests use a recorder.
type Notifier interface {
	Notify(message string)
}

// NopNotifier discards messages.
type NopNotifier struct{}

func (NopNotifier) Notify(string) {}

// Store is the shared handle for the generic facade functions.
type Store struct {
	db      *mongo.Database
	log     *zap.Logger
	notify  Notifier
	retry   RetryPolicy
	timeout time.Duration
}

func New(client *mongo.Client, dbName string, log *zap.Logger, notify Notifier) *Store {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Store{
		db:      client.Database(dbName),
		log:     log,
		notify:  notify,
		retry:   DefaultRetry,
		timeout: 5 * time.Second,
	}
}

func (s *Store) col(name string) *mongo.Collection { return s.db.Collection(name) }

// WithNotifier returns a copy of the store that reports user-facing failure
// copy to n. Request handlers use it to capture the message per call.
func (s *Store) WithNotifier(n Notifier) *Store {
	clone := *s
	clone.notify = n
	return &clone
}

// Query carries the native filter/order/limit primitives.
type Query struct {
	Filter bson.M
	Sort   bson.D
	Limit  int64
}

// GetByID fetches a single document by its object id.
func GetByID[T any](ctx context.Context, s *Store, collection string, id primitive.ObjectID) (T, *ClassifiedError) {
	return RetryWithBackoff(ctx, s.retry, "get_by_id", collection, func(ctx context.Context) (T, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		var out T
		err := s.col(collection).FindOne(opCtx, bson.M{"_id": id}).Decode(&out)
		return out, err
	})
}

// GetAll fetches every document in a collection.
func GetAll[T any](ctx context.Context, s *Store, collection string) ([]T, *ClassifiedError) {
	return Find[T](ctx, s, collection, Query{Filter: bson.M{}})
}

// Find runs a filtered query with optional sort and limit.
func Find[T any](ctx context.Context, s *Store, collection string, q Query) ([]T, *ClassifiedError) {
	return RetryWithBackoff(ctx, s.retry, "find", collection, func(ctx context.Context) ([]T, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		opts := options.Find()
		if len(q.Sort) > 0 {
			opts.SetSort(q.Sort)
		}
		if q.Limit > 0 {
			opts.SetLimit(q.Limit)
		}
		filter := q.Filter
		if filter == nil {
			filter = bson.M{}
		}

		cursor, err := s.col(collection).Find(opCtx, filter, opts)
		if err != nil {
			return nil, err
		}
		out := []T{}
		if err := cursor.All(opCtx, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Insert writes a new document as a conditional put on its id. Timestamps
// come from the server clock, never the client clock, so ordering stays
// consistent across skewed machines. A retried insert that already landed
// returns ErrDuplicate instead of mutating the stored document.
func Insert(ctx context.Context, s *Store, collection string, doc any) (primitive.ObjectID, *ClassifiedError) {
	fields, id, err := marshalFields(doc)
	if err != nil {
		return primitive.NilObjectID, Classify("insert", collection, err)
	}

	return RetryWithBackoff(ctx, s.retry, "insert", collection, func(ctx context.Context) (primitive.ObjectID, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		// The created_at guard keeps an existing document out of the match,
		// forcing the upsert down the insert path where the _id (or any
		// unique index) rejects it with a duplicate-key error.
		filter := bson.M{"_id": id, "created_at": bson.M{"$exists": false}}
		update := bson.M{
			"$setOnInsert": fields,
			"$currentDate": bson.M{"created_at": true, "updated_at": true},
		}
		_, err := s.col(collection).UpdateOne(opCtx, filter, update, options.Update().SetUpsert(true))
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, ErrDuplicate
		}
		if err != nil {
			return primitive.NilObjectID, err
		}
		return id, nil
	})
}

// Update applies a partial $set to one document and bumps updated_at with
// the server clock.
func Update(ctx context.Context, s *Store, collection string, id primitive.ObjectID, fields bson.M) *ClassifiedError {
	_, ce := RetryWithBackoff(ctx, s.retry, "update", collection, func(ctx context.Context) (struct{}, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		update := bson.M{"$currentDate": bson.M{"updated_at": true}}
		if len(fields) > 0 {
			update["$set"] = fields
		}
		res, err := s.col(collection).UpdateOne(opCtx, bson.M{"_id": id}, update)
		if err != nil {
			return struct{}{}, err
		}
		if res.MatchedCount == 0 {
			return struct{}{}, mongo.ErrNoDocuments
		}
		return struct{}{}, nil
	})
	return ce
}

// Remove deletes one document by id.
func Remove(ctx context.Context, s *Store, collection string, id primitive.ObjectID) *ClassifiedError {
	_, ce := RetryWithBackoff(ctx, s.retry, "remove", collection, func(ctx context.Context) (struct{}, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		res, err := s.col(collection).DeleteOne(opCtx, bson.M{"_id": id})
		if err != nil {
			return struct{}{}, err
		}
		if res.DeletedCount == 0 {
			return struct{}{}, mongo.ErrNoDocuments
		}
		return struct{}{}, nil
	})
	return ce
}

// Upsert sets fields on the document matching filter, inserting it when
// absent. created_at is stamped server-side on first insert only.
func Upsert(ctx context.Context, s *Store, collection string, filter bson.M, fields bson.M) *ClassifiedError {
	_, ce := RetryWithBackoff(ctx, s.retry, "upsert", collection, func(ctx context.Context) (struct{}, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		update := bson.M{
			"$set":         fields,
			"$currentDate": bson.M{"updated_at": true},
		}
		res, err := s.col(collection).UpdateOne(opCtx, filter, update, options.Update().SetUpsert(true))
		if err != nil {
			return struct{}{}, err
		}
		if res.UpsertedID != nil {
			_, err = s.col(collection).UpdateOne(opCtx,
				bson.M{"_id": res.UpsertedID, "created_at": bson.M{"$exists": false}},
				bson.M{"$currentDate": bson.M{"created_at": true}})
		}
		return struct{}{}, err
	})
	return ce
}

// Exists probes for any document matching filter. Used at startup to detect
// a collection that has not been provisioned yet.
func Exists(ctx context.Context, s *Store, collection string, filter bson.M) (bool, *ClassifiedError) {
	return RetryWithBackoff(ctx, s.retry, "exists", collection, func(ctx context.Context) (bool, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		if filter == nil {
			filter = bson.M{}
		}
		n, err := s.col(collection).CountDocuments(opCtx, filter, options.Count().SetLimit(1))
		if err != nil {
			return false, err
		}
		return n > 0, nil
	})
}

// marshalFields flattens a document struct into updatable fields. The id is
// pulled out (or generated) and timestamp fields are dropped so the server
// clock owns them.
func marshalFields(doc any) (bson.M, primitive.ObjectID, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, primitive.NilObjectID, err
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, primitive.NilObjectID, err
	}

	id, _ := fields["_id"].(primitive.ObjectID)
	if id.IsZero() {
		id = primitive.NewObjectID()
	}
	delete(fields, "_id")
	delete(fields, "created_at")
	delete(fields, "updated_at")
	return fields, id, nil
}

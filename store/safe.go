package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// The Safe* wrappers are the facade boundary the rest of the app talks to:
// failures are logged with full context, the user-facing copy is handed to
// the notifier, and the caller gets a zero value plus ok=false. Callers must
// treat ok=false as "operation did not happen", never as an empty result.

// SafeGetByID returns the document, or the zero value and false on failure.
func SafeGetByID[T any](ctx context.Context, s *Store, collection string, id primitive.ObjectID, userMessage string) (T, bool) {
	out, ce := GetByID[T](ctx, s, collection, id)
	if ce != nil {
		s.fail(ce, userMessage)
		var zero T
		return zero, false
	}
	return out, true
}

// SafeFind returns matching documents, or nil and false on failure.
func SafeFind[T any](ctx context.Context, s *Store, collection string, q Query, userMessage string) ([]T, bool) {
	out, ce := Find[T](ctx, s, collection, q)
	if ce != nil {
		s.fail(ce, userMessage)
		return nil, false
	}
	return out, true
}

// SafeInsert returns the new id, or NilObjectID and false on failure.
func SafeInsert(ctx context.Context, s *Store, collection string, doc any, userMessage string) (primitive.ObjectID, bool) {
	id, ce := Insert(ctx, s, collection, doc)
	if ce != nil {
		s.fail(ce, userMessage)
		return primitive.NilObjectID, false
	}
	return id, true
}

// SafeUpdate reports whether the update happened.
func SafeUpdate(ctx context.Context, s *Store, collection string, id primitive.ObjectID, fields bson.M, userMessage string) bool {
	if ce := Update(ctx, s, collection, id, fields); ce != nil {
		s.fail(ce, userMessage)
		return false
	}
	return true
}

// SafeRemove reports whether the delete happened.
func SafeRemove(ctx context.Context, s *Store, collection string, id primitive.ObjectID, userMessage string) bool {
	if ce := Remove(ctx, s, collection, id); ce != nil {
		s.fail(ce, userMessage)
		return false
	}
	return true
}

func (s *Store) fail(ce *ClassifiedError, userMessage string) {
	s.log.Error("store operation failed",
		zap.String("op", ce.Op),
		zap.String("collection", ce.Collection),
		zap.String("class", string(ce.Class)),
		zap.Error(ce.Err),
	)

	// Known classes carry their own copy; the caller's message only covers
	// the unknown bucket.
	msg := ce.UserMessage
	if ce.Class == ClassUnknown && userMessage != "" {
		msg = userMessage
	}
	s.notify.Notify(msg)
}

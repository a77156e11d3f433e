package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		class     ErrorClass
		retryable bool
	}{
		{"no documents", mongo.ErrNoDocuments, ClassNotFound, false},
		{"duplicate", ErrDuplicate, ClassPrecondition, false},
		{"unauthorized", mongo.CommandError{Code: 13, Message: "not authorized"}, ClassPermission, false},
		{"auth failed", mongo.CommandError{Code: 18, Message: "authentication failed"}, ClassPermission, false},
		{"missing index", mongo.CommandError{Code: 27, Message: "index not found"}, ClassPrecondition, false},
		{"deadline", context.DeadlineExceeded, ClassUnavailable, true},
		{"anything else", errors.New("weird driver hiccup"), ClassUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := Classify("find", "donations", tt.err)
			assert.Equal(t, tt.class, ce.Class)
			assert.Equal(t, tt.retryable, ce.Retryable())
			assert.NotEmpty(t, ce.UserMessage)
			assert.Equal(t, "find", ce.Op)
			assert.Equal(t, "donations", ce.Collection)
		})
	}
}

func TestClassifyExtractsIndexLink(t *testing.T) {
	err := mongo.CommandError{
		Code:    86,
		Message: "index mismatch, create it at https://cloud.example.com/indexes/abc123 first",
	}
	ce := Classify("find", "donations", err)

	assert.Equal(t, ClassPrecondition, ce.Class)
	assert.Equal(t, "https://cloud.example.com/indexes/abc123", ce.ActionURL)
	assert.Contains(t, ce.UserMessage, ce.ActionURL)
}

func TestClassifyWrapsOriginalError(t *testing.T) {
	orig := mongo.ErrNoDocuments
	ce := Classify("get_by_id", "campaigns", orig)
	assert.True(t, errors.Is(ce, mongo.ErrNoDocuments))
}

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

var testPolicy = RetryPolicy{Retries: 3, Delay: time.Millisecond, Factor: 2}

func TestRetryBoundIsRetriesPlusOne(t *testing.T) {
	calls := 0
	_, ce := RetryWithBackoff(context.Background(), testPolicy, "op", "col", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("still broken")
	})

	require.NotNil(t, ce)
	assert.Equal(t, ClassUnknown, ce.Class)
	assert.Equal(t, 4, calls) // 1 initial + 3 retries
}

func TestPermissionErrorIsNeverRetried(t *testing.T) {
	calls := 0
	_, ce := RetryWithBackoff(context.Background(), testPolicy, "op", "col", func(context.Context) (int, error) {
		calls++
		return 0, mongo.CommandError{Code: 13, Message: "not authorized on db"}
	})

	require.NotNil(t, ce)
	assert.Equal(t, ClassPermission, ce.Class)
	assert.Equal(t, 1, calls)
}

func TestPreconditionErrorIsNeverRetried(t *testing.T) {
	calls := 0
	_, ce := RetryWithBackoff(context.Background(), testPolicy, "op", "col", func(context.Context) (int, error) {
		calls++
		return 0, mongo.CommandError{Code: 27, Message: "index not found"}
	})

	require.NotNil(t, ce)
	assert.Equal(t, ClassPrecondition, ce.Class)
	assert.Equal(t, 1, calls)
}

func TestTransientErrorRecovers(t *testing.T) {
	calls := 0
	out, ce := RetryWithBackoff(context.Background(), testPolicy, "op", "col", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", context.DeadlineExceeded
		}
		return "ok", nil
	})

	require.Nil(t, ce)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, ce := RetryWithBackoff(ctx, RetryPolicy{Retries: 3, Delay: time.Minute, Factor: 2}, "op", "col", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("broken")
	})

	require.NotNil(t, ce)
	assert.Equal(t, 1, calls)
}

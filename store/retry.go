package store

import (
	"context"
	"time"
)

// RetryPolicy bounds the backoff loop. A policy with Retries=3 means at most
// four attempts in total.
type RetryPolicy struct {
	Retries int
	Delay   time.Duration
	Factor  int
}

var DefaultRetry = RetryPolicy{Retries: 3, Delay: 300 * time.Millisecond, Factor: 2}

// RetryWithBackoff runs fn with bounded exponential backoff. Errors are
// classified after every attempt; classes that cannot change on retry
// (permission, not-found, precondition) short-circuit immediately. The loop
// is explicit rather than recursive so the attempt counter and termination
// condition stay auditable.
func RetryWithBackoff[T any](ctx context.Context, policy RetryPolicy, op, collection string, fn func(context.Context) (T, error)) (T, *ClassifiedError) {
	var zero T
	delay := policy.Delay

	for attempt := 0; ; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}

		ce := Classify(op, collection, err)
		if !ce.Retryable() || attempt >= policy.Retries {
			return zero, ce
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, Classify(op, collection, ctx.Err())
		}
		delay *= time.Duration(policy.Factor)
	}
}

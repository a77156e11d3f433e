package workflow

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for an unknown or already-discarded checkout id.
var ErrNotFound = errors.New("checkout session not found")

// ErrorKind is the closed set of payment failure categories. Each maps to a
// distinct recovery affordance in the UI.
type ErrorKind string

const (
	ErrInitialization ErrorKind = "initialization"
	ErrProcessing     ErrorKind = "processing"
	ErrVerification   ErrorKind = "verification"
	ErrCancelled      ErrorKind = "cancelled"
	ErrUnknown        ErrorKind = "unknown"
)

// PaymentError is the typed failure attached to a checkout attempt.
// Verification failures carry the gateway transaction id so the donor can
// quote it to support.
type PaymentError struct {
	Kind          ErrorKind `json:"kind"`
	Message       string    `json:"message"`
	TransactionID string    `json:"transaction_id,omitempty"`
}

func (e *PaymentError) Error() string {
	if e.TransactionID != "" {
		return fmt.Sprintf("payment %s error (transaction %s): %s", e.Kind, e.TransactionID, e.Message)
	}
	return fmt.Sprintf("payment %s error: %s", e.Kind, e.Message)
}

// Retryable reports whether a retry button makes sense for this failure.
// Cancellation gets "try again"; verification gets "contact support".
func (e *PaymentError) Retryable() bool {
	switch e.Kind {
	case ErrInitialization, ErrProcessing, ErrUnknown, ErrCancelled:
		return true
	}
	return false
}

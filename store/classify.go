// Package store wraps the hosted document database behind a small generic
// CRUD facade with bounded retry and error classification.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/mongo"
)

type ErrorClass string

const (
	ClassPermission   ErrorClass = "permission"
	ClassNotFound     ErrorClass = "not_found"
	ClassUnavailable  ErrorClass = "unavailable"
	ClassPrecondition ErrorClass = "precondition"
	ClassUnknown      ErrorClass = "unknown"
)

// Server error codes worth distinguishing. See
// https://www.mongodb.com/docs/manual/reference/error-codes/
const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
	codeIndexNotFound        = 27
	codeIndexOptionsConflict = 85
	codeIndexKeySpecConflict = 86
)

// ErrDuplicate is returned by Insert when a unique index rejects the
// document. Callers relying on idempotent writes treat it as "already
// recorded".
var ErrDuplicate = errors.New("document already exists")

var urlPattern = regexp.MustCompile(`https?://\S+`)

// ClassifiedError is the single error type the facade surfaces. It keeps the
// operation and collection so the original failure stays debuggable even when
// the user-facing message is generic.
type ClassifiedError struct {
	Class       ErrorClass
	UserMessage string
	ActionURL   string
	Op          string
	Collection  string
	Err         error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Collection, e.Class, e.Err)
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could reasonably succeed.
// Permission, not-found and precondition failures never change on retry.
func (e *ClassifiedError) Retryable() bool {
	return e.Class == ClassUnavailable || e.Class == ClassUnknown
}

// Classify maps a database error onto the portal's error taxonomy.
func Classify(op, collection string, err error) *ClassifiedError {
	ce := &ClassifiedError{Class: ClassUnknown, Op: op, Collection: collection, Err: err}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		ce.Class = ClassNotFound
		ce.UserMessage = "The requested record was not found."
	case errors.Is(err, ErrDuplicate):
		ce.Class = ClassPrecondition
		ce.UserMessage = "This record already exists."
	case isPermission(err):
		ce.Class = ClassPermission
		ce.UserMessage = "You don't have permission to do this. Please check your access."
	case isPrecondition(err):
		ce.Class = ClassPrecondition
		ce.UserMessage = "The database is missing a required index."
		if url := urlPattern.FindString(err.Error()); url != "" {
			ce.ActionURL = url
			ce.UserMessage = "The database is missing a required index. See: " + url
		}
	case isTransient(err):
		ce.Class = ClassUnavailable
		ce.UserMessage = "The service is temporarily unavailable. Please try again."
	default:
		ce.UserMessage = "Something went wrong. Please try again later."
	}
	return ce
}

func isPermission(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == codeUnauthorized || cmdErr.Code == codeAuthenticationFailed
	}
	return false
}

func isPrecondition(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case codeIndexNotFound, codeIndexOptionsConflict, codeIndexKeySpecConflict:
			return true
		}
	}
	return false
}

func isTransient(err error) bool {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

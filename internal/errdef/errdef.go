package errdef

import (
	"errors"
	"fmt"
)

func NewForbidden(format string, a ...any) error {
	return forbidden{fmt.Errorf(format, a...)}
}

type forbidden struct{ error }

func (e forbidden) Unwrap() error { return e.error }

func IsForbidden(err error) bool {
	var e forbidden
	return errors.As(err, &e)
}

func NewBadRequest(format string, a ...any) error {
	return badRequest{fmt.Errorf(format, a...)}
}

type badRequest struct{ error }

func (e badRequest) Unwrap() error { return e.error }

func IsBadRequest(err error) bool {
	var e badRequest
	return errors.As(err, &e)
}

// NewValidation creates an error representing a request which references something invalid, like a
// rule of another group or a user who isn't a member. Validation errors are never retried.
func NewValidation(format string, a ...any) error {
	return validation{fmt.Errorf(format, a...)}
}

type validation struct{ error }

func (e validation) Unwrap() error { return e.error }

// IsValidation returns true if err is an error representing a failed validation and false otherwise.
func IsValidation(err error) bool {
	var e validation
	return errors.As(err, &e)
}

func NewDuplicated(format string, a ...any) error {
	return duplicated{fmt.Errorf(format, a...)}
}

type duplicated struct{ error }

func (e duplicated) Unwrap() error { return e.error }

func IsDuplicated(err error) bool {
	var e duplicated
	return errors.As(err, &e)
}

func NewUnauthorized(format string, a ...any) error {
	return unauthorized{fmt.Errorf(format, a...)}
}

type unauthorized struct{ error }

func (e unauthorized) Unwrap() error { return e.error }

func IsUnauthorized(err error) bool {
	var e unauthorized
	return errors.As(err, &e)
}

// NewNotFound creates an error representing a resource that could not be found.
func NewNotFound(format string, a ...any) error {
	return notFound{fmt.Errorf(format, a...)}
}

type notFound struct{ error }

func (e notFound) Unwrap() error { return e.error }

// IsNotFound returns true if err is an error representing a resource that could not be found and false otherwise.
func IsNotFound(err error) bool {
	var e notFound
	return errors.As(err, &e)
}

// NewConflict creates an error representing a conflicting state. Retrying the same request won't
// change the outcome.
func NewConflict(format string, a ...any) error {
	return conflict{fmt.Errorf(format, a...)}
}

type conflict struct{ error }

func (e conflict) Unwrap() error { return e.error }

// IsConflict returns true if err is an error representing a conflict and false otherwise.
func IsConflict(err error) bool {
	var e conflict
	return errors.As(err, &e)
}

// NewConcurrencyConflict creates an error representing a lost race against a concurrent update of
// the same resource. Contrary to a conflict it is safe to retry.
func NewConcurrencyConflict(format string, a ...any) error {
	return concurrencyConflict{fmt.Errorf(format, a...)}
}

type concurrencyConflict struct{ error }

func (e concurrencyConflict) Unwrap() error { return e.error }

// IsConcurrencyConflict returns true if err is an error representing a lost race and false otherwise.
func IsConcurrencyConflict(err error) bool {
	var e concurrencyConflict
	return errors.As(err, &e)
}

func NewUnsupportedMediaType(format string, a ...any) error {
	return unsupportedMediaType{fmt.Errorf(format, a...)}
}

type unsupportedMediaType struct{ error }

func (e unsupportedMediaType) Unwrap() error { return e.error }

func IsUnsupportedMediaType(err error) bool {
	var e unsupportedMediaType
	return errors.As(err, &e)
}

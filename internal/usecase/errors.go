package usecase

import (
	"errors"
	"fmt"
)

// ValidationError is a problem with caller input. It maps to HTTP 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// PersistenceError is a datastore failure while resolving or recording. It
// maps to HTTP 500; the whole request may be retried by the client.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func IsPersistenceError(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}

// DeliveryError is a failed send to one sink. It is only ever recorded in a
// delivery report, never returned to the end user.
type DeliveryError struct {
	Sink       string
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Sink, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Sink, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

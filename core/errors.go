package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// storeError reports that a backing store could not be reached or could not complete a request
// (network, auth, driver failures). It is never retried by the core.
type storeError struct {
	op  string
	err error
}

func NewStoreError(err error, op string) error {
	if err == nil {
		return nil
	}
	return &storeError{op: op, err: err}
}

func (s *storeError) Error() string {
	return "store unavailable: " + s.op + ": " + s.err.Error()
}

func (s *storeError) Unwrap() error { return s.err }

// IsStoreUnavailable tells whether err was caused by an unreachable store.
func IsStoreUnavailable(err error) bool {
	_, ok := errors.Cause(err).(*storeError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

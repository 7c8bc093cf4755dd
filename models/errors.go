package models

import (
	"errors"
	"fmt"
)

// ErrAlreadyRegistered is returned when an owner already has a donor profile.
var ErrAlreadyRegistered = errors.New("already registered as a donor")

// ErrDuplicateAccount is returned when a username or email is taken.
var ErrDuplicateAccount = errors.New("username or email already in use")

// ErrInvalidCredentials is returned by login for an unknown email or a wrong
// password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ValidationError reports a malformed request. It is not retryable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a missing profile or record.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Key)
}

// StoreError wraps a backing-store failure such as a lost connection or a
// timeout. Callers may retry with backoff.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Retryable is always true for store failures.
func (e *StoreError) Retryable() bool { return true }

// NewStoreError wraps err unless it already is a StoreError, NotFoundError or
// ValidationError.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	var nf *NotFoundError
	var ve *ValidationError
	if errors.As(err, &se) || errors.As(err, &nf) || errors.As(err, &ve) || errors.Is(err, ErrAlreadyRegistered) || errors.Is(err, ErrDuplicateAccount) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// PartialDataError summarises candidates excluded from a search because
// their location could not be normalized (Dropped) or whose owner could not be
// resolved (Unresolved). It never aborts a search.
type PartialDataError struct {
	Dropped    int
	Unresolved int
}

func (e *PartialDataError) Error() string {
	return fmt.Sprintf("partial data: %d dropped, %d unresolved", e.Dropped, e.Unresolved)
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Retryable()
}

package monitor

import (
	"context"
	"errors"
	"fmt"
)

// ValidationError reports rejected input. No state was changed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// NotFoundError reports a referenced asset, rule, reading or maintenance record that does not exist.
type NotFoundError struct {
	Kind string
	ID   uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// StoreError reports that the underlying store failed, timed out or was canceled.
// The operation that returned it produced no partial result.
type StoreError struct {
	Err error
	Op  string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the store call was canceled or hit its deadline.
func (e *StoreError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded) || errors.Is(e.Err, context.Canceled)
}

// storeErr wraps err as a StoreError unless it already carries a domain classification.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		notFound   *NotFoundError
		validation *ValidationError
		store      *StoreError
	)
	if errors.As(err, &notFound) || errors.As(err, &validation) || errors.As(err, &store) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsStore reports whether err is a StoreError.
func IsStore(err error) bool {
	var target *StoreError
	return errors.As(err, &target)
}

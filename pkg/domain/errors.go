package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionUnreadable marks a stored session that exists but cannot be
// decoded. Stores wrap it together with ErrSessionNotFound so callers start
// over with a fresh session.
var ErrSessionUnreadable = errors.New("session unreadable")

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDeleteForbidden is returned when deleting a record would orphan log entries.
var ErrDeleteForbidden = errors.New("deleting this record is not allowed, it would break the logs")

// ConfigurationError means a request reached the page lifecycle unrouted or
// without a usable site configuration. No transaction has been touched.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// RoutingError is raised at route-bind time when the requested action is not
// declared by the page.
type RoutingError struct {
	Page  string
	Route string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("proposed route '%s' is not callable on page '%s'", e.Route, e.Page)
}

// TransactionError means the store could not open a transaction.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string {
	if e.Err == nil {
		return "failed to start transaction on primary database"
	}
	return "failed to start transaction on primary database: " + e.Err.Error()
}

func (e *TransactionError) Unwrap() error { return e.Err }

// BusinessRuleViolation is an expected, user-facing failure raised by action
// code (invalid input, illegal state transition...). It is the only error the
// lifecycle recovers from: the transaction is rolled back and the message is
// shown on a regular page.
type BusinessRuleViolation struct {
	Message string
}

func (e *BusinessRuleViolation) Error() string {
	return e.Message
}

// InvalidStateError is a programming-contract violation in a concrete page,
// e.g. selecting a template after a redirect was issued.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return "invalid page state: " + e.Reason
}

// Violation builds a BusinessRuleViolation with a formatted message.
func Violation(format string, args ...any) error {
	return &BusinessRuleViolation{Message: fmt.Sprintf(format, args...)}
}

// IsRecoverable reports whether err, or anything it wraps, is a
// BusinessRuleViolation.
func IsRecoverable(err error) bool {
	var v *BusinessRuleViolation
	return errors.As(err, &v)
}

package models

import (
	"errors"
	"fmt"
	"strings"
)

// FieldViolation describes a single rejected input field.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports bad local input. It is raised before any request
// leaves the process.
type ValidationError struct {
	Message string
	Fields  []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	if e.Message != "" {
		return e.Message + " (" + strings.Join(parts, "; ") + ")"
	}
	return strings.Join(parts, "; ")
}

// NewValidationError builds a single-field validation failure.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldViolation{{Field: field, Reason: reason}}}
}

// InvalidStateError reports an operation that is not permitted in the bill's
// current lifecycle state. Like ValidationError it is resolved locally.
type InvalidStateError struct {
	Op     string
	Status BillStatus
	Reason string
}

func (e *InvalidStateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s not permitted: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s not permitted while bill is %s", e.Op, e.Status)
}

// NetworkError wraps transport failures and upstream 5xx responses. Reads may
// be retried a bounded number of times; mutations surface it untouched so the
// caller decides, since the server-side outcome is unknown.
type NetworkError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("%s failed: %s", e.Op, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s failed with status %d", e.Op, e.StatusCode)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DataIntegrityError reports server data that violates a local invariant,
// such as a negative consumption quantity or an order amount that does not
// match the bill.
type DataIntegrityError struct {
	Reason string
}

func (e *DataIntegrityError) Error() string { return "data integrity violation: " + e.Reason }

// TimeoutError reports an exhausted polling budget. The condition is
// user-recoverable: the same operation can simply be issued again.
type TimeoutError struct {
	Op       string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %d attempts", e.Op, e.Attempts)
}

// Normalize collapses any error from the core into a single human-readable
// message suitable for a portal, whether the failure originated as a
// structured validation list or a flat upstream detail string.
func Normalize(err error) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	var sErr *InvalidStateError
	if errors.As(err, &sErr) {
		return sErr.Error()
	}
	var tErr *TimeoutError
	if errors.As(err, &tErr) {
		return "The document is still being prepared. Please try again in a moment."
	}
	var nErr *NetworkError
	if errors.As(err, &nErr) {
		if nErr.Detail != "" {
			return nErr.Detail
		}
		return "The service is temporarily unreachable. Please try again."
	}
	var dErr *DataIntegrityError
	if errors.As(err, &dErr) {
		return dErr.Error()
	}
	return err.Error()
}

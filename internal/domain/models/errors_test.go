package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMessage(t *testing.T) {
	err := NewValidationError("month", "must match YYYY-MM")
	assert.Equal(t, "month: must match YYYY-MM", err.Error())

	multi := &ValidationError{
		Message: "invalid request",
		Fields: []FieldViolation{
			{Field: "month", Reason: "required"},
			{Field: "utr", Reason: "must not be empty"},
		},
	}
	assert.Equal(t, "invalid request (month: required; utr: must not be empty)", multi.Error())
}

func TestNetworkErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &NetworkError{Op: "fetch consumption", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "fetch consumption failed")
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil",
			err:  nil,
			want: "",
		},
		{
			name: "validation field list",
			err:  NewValidationError("month", "must match YYYY-MM"),
			want: "month: must match YYYY-MM",
		},
		{
			name: "invalid state",
			err:  &InvalidStateError{Op: "create payment order", Status: StatusPaid},
			want: "create payment order not permitted while bill is PAID",
		},
		{
			name: "timeout is user recoverable",
			err:  &TimeoutError{Op: "pdf generation wait", Attempts: 10},
			want: "The document is still being prepared. Please try again in a moment.",
		},
		{
			name: "network error with upstream detail",
			err:  &NetworkError{Op: "mark paid", StatusCode: 502, Detail: "gateway unavailable"},
			want: "gateway unavailable",
		},
		{
			name: "network error without detail",
			err:  &NetworkError{Op: "mark paid", Err: errors.New("dial tcp: timeout")},
			want: "The service is temporarily unreachable. Please try again.",
		},
		{
			name: "wrapped network error",
			err:  fmt.Errorf("reconcile: %w", &NetworkError{Op: "get bill", StatusCode: 503}),
			want: "The service is temporarily unreachable. Please try again.",
		},
		{
			name: "data integrity",
			err:  &DataIntegrityError{Reason: "order amount does not match bill total"},
			want: "data integrity violation: order amount does not match bill total",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.err))
		})
	}
}

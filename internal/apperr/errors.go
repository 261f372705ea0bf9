// Package apperr defines the typed outcomes shared by the location and place engines.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an expected failure mode.
type Kind string

const (
	InvalidCoordinate    Kind = "invalid_coordinate"
	OutOfRegion          Kind = "out_of_region"
	NoNearbyNeighborhood Kind = "no_nearby_neighborhood"
	MissingCredentials   Kind = "missing_credentials"
	RateLimited          Kind = "rate_limited"
	InvalidRequest       Kind = "invalid_request"
	ProviderUnavailable  Kind = "provider_unavailable"
	Unknown              Kind = "unknown"
)

// Retryable reports whether a caller may retry an operation that failed with this kind.
func (k Kind) Retryable() bool {
	return k == RateLimited || k == ProviderUnavailable
}

// Error is an expected, typed failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind around a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsTyped reports whether err is an expected outcome rather than a programmer or data error.
func IsTyped(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

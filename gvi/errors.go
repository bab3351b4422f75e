package gvi

import "errors"

var (
	// ErrInvalidArgument reports a series, configuration, or per-call
	// parameter that fails validation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUndefined reports a statistic with no defined value for the
	// given series, as opposed to a legitimate zero.
	ErrUndefined = errors.New("result undefined")

	// ErrNotFound reports an index name absent from the registry.
	ErrNotFound = errors.New("index not found")
)

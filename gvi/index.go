// Package gvi computes glycemic variability indices over CGM glucose
// series. Every index binds a frame and a CalcConfig at construction,
// validates both, and then computes on demand. Missing samples are NaN
// entries in the glucose column; they are skipped by reductions, never
// silently treated as zeros. A statistic that has no defined value for
// the series reports ErrUndefined rather than returning NaN.
package gvi

import (
	"fmt"

	"glyco/defs"
)

// Index is the contract shared by the zero-parameter indices: bind the
// inputs once, then Calculate any number of times.
type Index interface {
	Calculate() (float64, error)
}

// series holds the inputs every concrete index shares.
type series struct {
	values []float64
	cfg    *defs.CalcConfig
}

// newSeries validates the frame and config and binds the glucose column.
func newSeries(frame *defs.Frame, cfg *defs.CalcConfig) (series, error) {
	if frame == nil {
		return series{}, fmt.Errorf("%w: frame must not be nil", ErrInvalidArgument)
	}
	values, ok := frame.Column(defs.ColGlucose)
	if !ok {
		return series{}, fmt.Errorf("%w: frame has no %q column", ErrInvalidArgument, defs.ColGlucose)
	}
	if len(values) == 0 {
		return series{}, fmt.Errorf("%w: frame has no rows", ErrInvalidArgument)
	}
	if cfg == nil {
		return series{}, fmt.Errorf("%w: calc config must not be nil", ErrInvalidArgument)
	}
	if err := cfg.Validate(); err != nil {
		return series{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return series{values: values, cfg: cfg}, nil
}

func checkThreshold(threshold int) error {
	if threshold <= 0 {
		return fmt.Errorf("%w: threshold must be positive, got %d", ErrInvalidArgument, threshold)
	}
	return nil
}

func checkDuration(durationMin int) error {
	if durationMin < 0 {
		return fmt.Errorf("%w: duration must not be negative, got %d", ErrInvalidArgument, durationMin)
	}
	return nil
}

package defs

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// MmolConvFactor converts mg/dL readings to mmol/L.
	MmolConvFactor = 18.0

	// ColTime and ColGlucose name the frame columns every analysis expects.
	ColTime    = "time"
	ColGlucose = "glucose"
)

type TimePoint interface {
	GetTime() time.Time
}

// Reading is a single CGM sample. Value carries NaN when the slot exists
// but the sensor reported nothing.
type Reading struct {
	ID    *primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Time  time.Time           `json:"time" bson:"time"`
	Value float64             `json:"value" bson:"value"`
	Trend string              `json:"trend,omitempty" bson:"trend,omitempty"`
}

func (r *Reading) GetTime() time.Time {
	return r.Time
}

// Alert records an index crossing one of the configured limits.
type Alert struct {
	ID     *primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Time   time.Time           `json:"time" bson:"time"`
	Index  string              `json:"index" bson:"index"`
	Value  float64             `json:"value" bson:"value"`
	Limit  float64             `json:"limit" bson:"limit"`
	Reason string              `json:"reason" bson:"reason"`
}

func (a *Alert) GetTime() time.Time {
	return a.Time
}

// Missing is the sentinel stored for absent samples.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether v is the missing-sample sentinel.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Frame is a small column table holding one analysis window. Columns are
// float64 slices of equal length; sample times ride alongside when known.
type Frame struct {
	times []time.Time
	cols  map[string][]float64
	rows  int
}

// NewFrame builds a frame from named columns. All columns must share the
// same length.
func NewFrame(cols map[string][]float64) (*Frame, error) {
	f := &Frame{cols: make(map[string][]float64, len(cols))}
	first := true
	for name, vals := range cols {
		if first {
			f.rows = len(vals)
			first = false
		} else if len(vals) != f.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", name, len(vals), f.rows)
		}
		f.cols[name] = vals
	}
	return f, nil
}

// GlucoseFrame wraps a bare glucose series in a frame.
func GlucoseFrame(values []float64) *Frame {
	f, _ := NewFrame(map[string][]float64{ColGlucose: values})
	return f
}

// SetTimes attaches per-row sample times.
func (f *Frame) SetTimes(ts []time.Time) error {
	if len(ts) != f.rows {
		return fmt.Errorf("got %d times, want %d", len(ts), f.rows)
	}
	f.times = ts
	return nil
}

// Column returns the named column, or false when the frame does not carry it.
func (f *Frame) Column(name string) ([]float64, bool) {
	vals, ok := f.cols[name]
	return vals, ok
}

func (f *Frame) Times() []time.Time {
	return f.times
}

func (f *Frame) Len() int {
	return f.rows
}

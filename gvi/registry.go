package gvi

import (
	"fmt"

	"glyco/defs"
)

// Builder constructs a ready-to-run index over the given inputs.
type Builder func(frame *defs.Frame, cfg *defs.CalcConfig) (Index, error)

type entry struct {
	name  string
	build Builder
}

// registry lists every zero-parameter index in registration order. The
// parameterized indices (threshold scans, episode stats, CONGA) take
// per-call arguments and are invoked directly instead.
var registry = []entry{
	{"Mean", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewMean(f, c) }},
	{"Median", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewMedian(f, c) }},
	{"Variance", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewVariance(f, c) }},
	{"CV", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewCV(f, c) }},
	{"Missing values", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewNanFraction(f, c) }},
	{"Total time points No", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewRecords(f, c) }},
	{"SD", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewSD(f, c) }},
	{"M100", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewM100(f, c) }},
	{"J-index", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewJIndex(f, c) }},
	{"MAGE", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewMAGE(f, c) }},
	{"MODD", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewMODD(f, c) }},
	{"GRADE", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewGRADE(f, c) }},
	{"GRADE hypo", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewGradeHypo(f, c) }},
	{"GRADE hyper", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewGradeHyper(f, c) }},
	{"LBGI", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewLBGI(f, c) }},
	{"HBGI", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewHBGI(f, c) }},
	{"eA1c", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewEA1c(f, c) }},
	{"AUC", func(f *defs.Frame, c *defs.CalcConfig) (Index, error) { return NewAUC(f, c) }},
}

// DefaultIndices is the set a run computes when the caller does not name
// one.
var DefaultIndices = []string{
	"Mean",
	"Median",
	"Variance",
	"CV",
	"Missing values",
	"Total time points No",
}

// Names returns every registered display name in registration order.
func Names() []string {
	names := make([]string, len(registry))
	for i, e := range registry {
		names[i] = e.name
	}
	return names
}

// Lookup returns the builder registered under name.
func Lookup(name string) (Builder, error) {
	for _, e := range registry {
		if e.name == name {
			return e.build, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Result is one computed index. Err carries ErrUndefined when the
// statistic has no value for the series; Value is only meaningful when
// Err is nil.
type Result struct {
	Name  string
	Value float64
	Err   error
}

// Defined reports whether the result carries a usable value.
func (r Result) Defined() bool {
	return r.Err == nil
}

// Batch computes the named indices over one shared frame and config,
// returning results in registration order. An empty name list computes
// DefaultIndices. Unknown names fail the whole batch before anything is
// computed; an undefined statistic only marks its own result.
func Batch(frame *defs.Frame, cfg *defs.CalcConfig, names ...string) ([]Result, error) {
	if len(names) == 0 {
		names = DefaultIndices
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, err := Lookup(n); err != nil {
			return nil, err
		}
		want[n] = true
	}

	results := make([]Result, 0, len(want))
	for _, e := range registry {
		if !want[e.name] {
			continue
		}
		ix, err := e.build(frame, cfg)
		if err != nil {
			return nil, fmt.Errorf("build %q: %w", e.name, err)
		}
		v, err := ix.Calculate()
		results = append(results, Result{Name: e.name, Value: v, Err: err})
	}
	return results, nil
}

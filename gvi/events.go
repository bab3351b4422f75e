package gvi

import "glyco/defs"

func below(threshold float64) func(float64) bool {
	return func(v float64) bool { return v < threshold }
}

func above(threshold float64) func(float64) bool {
	return func(v float64) bool { return v > threshold }
}

// countWhere counts valid readings matching pred. Missing readings fail
// every predicate.
func countWhere(vs []float64, pred func(float64) bool) int {
	n := 0
	for _, v := range vs {
		if pred(v) {
			n++
		}
	}
	return n
}

// episodeLengths scans the series once and returns the sample length of
// every qualifying episode: a maximal run of readings matching pred that
// is strictly longer than minSamples. A run is only evaluated when a
// non-matching reading closes it, so a run still open at the end of the
// series is discarded. Missing readings never match and therefore close
// runs.
func episodeLengths(vs []float64, pred func(float64) bool, minSamples float64) []int {
	var lengths []int
	run := 0
	for _, v := range vs {
		if pred(v) {
			run++
			continue
		}
		if float64(run) > minSamples {
			lengths = append(lengths, run)
		}
		run = 0
	}
	return lengths
}

// Hypoglycemia counts the valid readings strictly below the threshold.
type Hypoglycemia struct{ series }

func NewHypoglycemia(frame *defs.Frame, cfg *defs.CalcConfig) (*Hypoglycemia, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &Hypoglycemia{s}, nil
}

func (ix *Hypoglycemia) Calculate(threshold int) (float64, error) {
	if err := checkThreshold(threshold); err != nil {
		return 0, err
	}
	return float64(countWhere(ix.values, below(float64(threshold)))), nil
}

// Hyperglycemia counts the valid readings strictly above the threshold.
type Hyperglycemia struct{ series }

func NewHyperglycemia(frame *defs.Frame, cfg *defs.CalcConfig) (*Hyperglycemia, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &Hyperglycemia{s}, nil
}

func (ix *Hyperglycemia) Calculate(threshold int) (float64, error) {
	if err := checkThreshold(threshold); err != nil {
		return 0, err
	}
	return float64(countWhere(ix.values, above(float64(threshold)))), nil
}

// TimeInHypo is the minutes spent below the threshold: the sample count
// scaled by the interval, regardless of how the samples group into runs.
type TimeInHypo struct{ series }

func NewTimeInHypo(frame *defs.Frame, cfg *defs.CalcConfig) (*TimeInHypo, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &TimeInHypo{s}, nil
}

func (ix *TimeInHypo) Calculate(threshold int) (float64, error) {
	if err := checkThreshold(threshold); err != nil {
		return 0, err
	}
	n := countWhere(ix.values, below(float64(threshold)))
	return float64(n) * ix.cfg.Interval, nil
}

// TimeInHyper is the minutes spent above the threshold.
type TimeInHyper struct{ series }

func NewTimeInHyper(frame *defs.Frame, cfg *defs.CalcConfig) (*TimeInHyper, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &TimeInHyper{s}, nil
}

func (ix *TimeInHyper) Calculate(threshold int) (float64, error) {
	if err := checkThreshold(threshold); err != nil {
		return 0, err
	}
	n := countWhere(ix.values, above(float64(threshold)))
	return float64(n) * ix.cfg.Interval, nil
}

// HypoEventCount counts hypoglycemic episodes: maximal runs below the
// threshold lasting strictly longer than durationMin minutes.
type HypoEventCount struct{ series }

func NewHypoEventCount(frame *defs.Frame, cfg *defs.CalcConfig) (*HypoEventCount, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &HypoEventCount{s}, nil
}

func (ix *HypoEventCount) Calculate(threshold, durationMin int) (float64, error) {
	if err := checkThreshold(threshold); err != nil {
		return 0, err
	}
	if err := checkDuration(durationMin); err != nil {
		return 0, err
	}
	minSamples := float64(durationMin) / ix.cfg.Interval
	lengths := episodeLengths(ix.values, below(float64(threshold)), minSamples)
	return float64(len(lengths)), nil
}

// MeanHypoEventDuration is the mean episode duration in minutes over the
// episodes HypoEventCount would find. No episodes means no mean.
type MeanHypoEventDuration struct{ series }

func NewMeanHypoEventDuration(frame *defs.Frame, cfg *defs.CalcConfig) (*MeanHypoEventDuration, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &MeanHypoEventDuration{s}, nil
}

func (ix *MeanHypoEventDuration) Calculate(threshold, durationMin int) (float64, error) {
	if err := checkThreshold(threshold); err != nil {
		return 0, err
	}
	if err := checkDuration(durationMin); err != nil {
		return 0, err
	}
	minSamples := float64(durationMin) / ix.cfg.Interval
	lengths := episodeLengths(ix.values, below(float64(threshold)), minSamples)
	if len(lengths) == 0 {
		return 0, ErrUndefined
	}
	total := 0
	for _, l := range lengths {
		total += l
	}
	return float64(total) / float64(len(lengths)) * ix.cfg.Interval, nil
}

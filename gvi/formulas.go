package gvi

import (
	"fmt"
	"math"

	"glyco/defs"
)

// Mean is the average of the valid readings.
type Mean struct{ series }

func NewMean(frame *defs.Frame, cfg *defs.CalcConfig) (*Mean, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &Mean{s}, nil
}

func (ix *Mean) Calculate() (float64, error) {
	return nanMean(ix.values)
}

// Median is the middle valid reading, averaging the two middle ones for
// an even count.
type Median struct{ series }

func NewMedian(frame *defs.Frame, cfg *defs.CalcConfig) (*Median, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &Median{s}, nil
}

func (ix *Median) Calculate() (float64, error) {
	return nanMedian(ix.values)
}

// Variance is the population variance of the valid readings.
type Variance struct{ series }

func NewVariance(frame *defs.Frame, cfg *defs.CalcConfig) (*Variance, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &Variance{s}, nil
}

func (ix *Variance) Calculate() (float64, error) {
	return nanVar(ix.values)
}

// SD is the population standard deviation of the valid readings.
type SD struct{ series }

func NewSD(frame *defs.Frame, cfg *defs.CalcConfig) (*SD, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &SD{s}, nil
}

func (ix *SD) Calculate() (float64, error) {
	return nanStd(ix.values)
}

// CV is the variance divided by the mean. Note the numerator is the
// variance, not the standard deviation of the textbook definition.
type CV struct{ series }

func NewCV(frame *defs.Frame, cfg *defs.CalcConfig) (*CV, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &CV{s}, nil
}

func (ix *CV) Calculate() (float64, error) {
	v, err := nanVar(ix.values)
	if err != nil {
		return 0, err
	}
	m, err := nanMean(ix.values)
	if err != nil {
		return 0, err
	}
	if m == 0 {
		return 0, fmt.Errorf("%w: zero mean", ErrUndefined)
	}
	return v / m, nil
}

// NanFraction is the fraction of the series that is missing, between 0
// and 1. A series with no rows is rejected at construction, so the
// result is always defined.
type NanFraction struct{ series }

func NewNanFraction(frame *defs.Frame, cfg *defs.CalcConfig) (*NanFraction, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &NanFraction{s}, nil
}

func (ix *NanFraction) Calculate() (float64, error) {
	missing := 0
	for _, v := range ix.values {
		if !isFinite(v) {
			missing++
		}
	}
	return float64(missing) / float64(len(ix.values)), nil
}

// Records is the total number of slots in the series, missing included.
type Records struct{ series }

func NewRecords(frame *defs.Frame, cfg *defs.CalcConfig) (*Records, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &Records{s}, nil
}

func (ix *Records) Calculate() (float64, error) {
	return float64(len(ix.values)), nil
}

// M100 is the mean of 1000*log10(g/100), with the 100 mg/dL reference
// point rescaled to 100/18 for mmol/L series.
type M100 struct{ series }

func NewM100(frame *defs.Frame, cfg *defs.CalcConfig) (*M100, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &M100{s}, nil
}

func (ix *M100) Calculate() (float64, error) {
	ref := 100.0
	if ix.cfg.Unit == defs.UnitMmol {
		ref = 100.0 / defs.MmolConvFactor
	}
	ts := mapValid(ix.values, func(v float64) float64 {
		return 1000 * math.Log10(v/ref)
	})
	return nanMean(ts)
}

// JIndex is 0.001*(mean+SD)^2.
type JIndex struct{ series }

func NewJIndex(frame *defs.Frame, cfg *defs.CalcConfig) (*JIndex, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &JIndex{s}, nil
}

func (ix *JIndex) Calculate() (float64, error) {
	m, err := nanMean(ix.values)
	if err != nil {
		return 0, err
	}
	sd, err := nanStd(ix.values)
	if err != nil {
		return 0, err
	}
	return 0.001 * (m + sd) * (m + sd), nil
}

// gradeScore is the GRADE transform of a single reading in mmol/L.
// Readings outside the log domain come out non-finite and are masked by
// the caller.
func gradeScore(v float64) float64 {
	l := math.Log10(math.Log10(v) + 0.16)
	return 425 * l * l
}

// GRADE is the mean GRADE score of the series. The published constants
// expect mmol/L, so mg/dL series are scaled by 18 before scoring.
type GRADE struct{ series }

func NewGRADE(frame *defs.Frame, cfg *defs.CalcConfig) (*GRADE, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &GRADE{s}, nil
}

func (ix *GRADE) Calculate() (float64, error) {
	mg := ix.cfg.Unit == defs.UnitMg
	ts := mapValid(ix.values, func(v float64) float64 {
		if mg {
			v /= defs.MmolConvFactor
		}
		return gradeScore(v)
	})
	return nanMean(ts)
}

// gradeShare is the fraction of total GRADE score carried by readings
// the pick function selects.
func (s series) gradeShare(pick func(v, threshold float64) bool, threshold float64) (float64, error) {
	mg := s.cfg.Unit == defs.UnitMg
	var num, den float64
	n := 0
	for _, v := range s.values {
		if !isFinite(v) {
			continue
		}
		if mg {
			v /= defs.MmolConvFactor
		}
		g := gradeScore(v)
		if !isFinite(g) {
			continue
		}
		den += g
		n++
		if pick(v, threshold) {
			num += g
		}
	}
	if n == 0 || den == 0 {
		return 0, fmt.Errorf("%w: zero GRADE denominator", ErrUndefined)
	}
	return num / den, nil
}

// GradeHypo is the share of total GRADE score below the hypoglycemic
// cutoff. For mg/dL series the readings are rescaled to mmol/L while
// the cutoff stays at 90, so effectively every reading is selected.
type GradeHypo struct{ series }

func NewGradeHypo(frame *defs.Frame, cfg *defs.CalcConfig) (*GradeHypo, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &GradeHypo{s}, nil
}

func (ix *GradeHypo) Calculate() (float64, error) {
	threshold := 90.0
	if ix.cfg.Unit == defs.UnitMmol {
		threshold = 90.0 / defs.MmolConvFactor
	}
	return ix.gradeShare(func(v, t float64) bool { return v < t }, threshold)
}

// GradeHyper is the share of total GRADE score above the hyperglycemic
// cutoff, with the same unit handling as GradeHypo.
type GradeHyper struct{ series }

func NewGradeHyper(frame *defs.Frame, cfg *defs.CalcConfig) (*GradeHyper, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &GradeHyper{s}, nil
}

func (ix *GradeHyper) Calculate() (float64, error) {
	threshold := 140.0
	if ix.cfg.Unit == defs.UnitMmol {
		threshold = 140.0 / defs.MmolConvFactor
	}
	return ix.gradeShare(func(v, t float64) bool { return v > t }, threshold)
}

// bgRisk is the symmetrized blood glucose risk of a single reading.
func bgRisk(v float64) float64 {
	return 1.509 * (math.Pow(math.Log10(v), 1.084) - 5.381)
}

// LBGI is the low blood glucose risk index: mean of 10*f^2 over the
// series with the high-side risks zeroed.
type LBGI struct{ series }

func NewLBGI(frame *defs.Frame, cfg *defs.CalcConfig) (*LBGI, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &LBGI{s}, nil
}

func (ix *LBGI) Calculate() (float64, error) {
	rs := mapValid(ix.values, func(v float64) float64 {
		f := bgRisk(v)
		if !isFinite(f) {
			return f
		}
		if f > 0 {
			return 0
		}
		return 10 * f * f
	})
	return nanMean(rs)
}

// HBGI is the high blood glucose risk index, the mirror of LBGI.
type HBGI struct{ series }

func NewHBGI(frame *defs.Frame, cfg *defs.CalcConfig) (*HBGI, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &HBGI{s}, nil
}

func (ix *HBGI) Calculate() (float64, error) {
	rs := mapValid(ix.values, func(v float64) float64 {
		f := bgRisk(v)
		if !isFinite(f) {
			return f
		}
		if f < 0 {
			return 0
		}
		return 10 * f * f
	})
	return nanMean(rs)
}

// EA1c estimates HbA1c from the mean glucose. The mg/dL branch converts
// with 18.02, not the 18 used elsewhere.
type EA1c struct{ series }

func NewEA1c(frame *defs.Frame, cfg *defs.CalcConfig) (*EA1c, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &EA1c{s}, nil
}

func (ix *EA1c) Calculate() (float64, error) {
	m, err := nanMean(ix.values)
	if err != nil {
		return 0, err
	}
	if ix.cfg.Unit == defs.UnitMg {
		m /= 18.02
	}
	return (m + 2.52) / 1.583, nil
}

// AUC is the time-normalized area under the series: trapezoidal area
// with missing readings taken as zero, divided by the interval and the
// slot count. Scaling every reading by a constant scales AUC by the
// same constant.
type AUC struct{ series }

func NewAUC(frame *defs.Frame, cfg *defs.CalcConfig) (*AUC, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &AUC{s}, nil
}

func (ix *AUC) Calculate() (float64, error) {
	filled := fillMissing(ix.values, 0)
	area := 0.0
	for i := 0; i+1 < len(filled); i++ {
		area += (filled[i] + filled[i+1]) / 2 * ix.cfg.Interval
	}
	return area / ix.cfg.Interval / float64(len(filled)), nil
}

// MODD is the mean of the day-to-day differences, computed as the
// difference of order 1440/interval over the series.
type MODD struct{ series }

func NewMODD(frame *defs.Frame, cfg *defs.CalcConfig) (*MODD, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &MODD{s}, nil
}

func (ix *MODD) Calculate() (float64, error) {
	n := diffOrder(24*60, ix.cfg.Interval)
	return nanMean(diffN(ix.values, n))
}

// CONGA is the population variance of differences taken hours apart,
// computed as the difference of order hours*60/interval.
type CONGA struct{ series }

func NewCONGA(frame *defs.Frame, cfg *defs.CalcConfig) (*CONGA, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &CONGA{s}, nil
}

func (ix *CONGA) Calculate(hours int) (float64, error) {
	if hours <= 0 {
		return 0, fmt.Errorf("%w: hours must be positive, got %d", ErrInvalidArgument, hours)
	}
	n := diffOrder(float64(hours)*60, ix.cfg.Interval)
	return nanVar(diffN(ix.values, n))
}

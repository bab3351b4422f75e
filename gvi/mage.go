package gvi

import (
	"math"

	"glyco/defs"
)

// MAGE is the mean amplitude of glycemic excursions: the average swing
// between consecutive turning points of the smoothed series, counting
// only swings strictly larger than one standard deviation of the raw
// valid readings. Missing readings are filled with the series mean
// before smoothing so the moving average stays defined everywhere.
type MAGE struct{ series }

func NewMAGE(frame *defs.Frame, cfg *defs.CalcConfig) (*MAGE, error) {
	s, err := newSeries(frame, cfg)
	if err != nil {
		return nil, err
	}
	return &MAGE{s}, nil
}

func (ix *MAGE) Calculate() (float64, error) {
	m, err := nanMean(ix.values)
	if err != nil {
		return 0, err
	}
	sd, err := nanStd(ix.values)
	if err != nil {
		return 0, err
	}
	smoothed := movingAverage(fillMissing(ix.values, m), ix.cfg.SmoothingWindow)
	if len(smoothed) == 0 {
		return 0, ErrUndefined
	}
	amps := excursionAmplitudes(smoothed, sd)
	if len(amps) == 0 {
		return 0, ErrUndefined
	}
	total := 0.0
	for _, a := range amps {
		total += a
	}
	return total / float64(len(amps)), nil
}

// excursionAmplitudes walks the smoothed series, collects its turning
// points (endpoints included), and returns the absolute swings between
// consecutive turning points that exceed minAmp.
func excursionAmplitudes(vs []float64, minAmp float64) []float64 {
	turns := []float64{vs[0]}
	dir := 0
	for i := 1; i < len(vs); i++ {
		d := 0
		if vs[i] > vs[i-1] {
			d = 1
		} else if vs[i] < vs[i-1] {
			d = -1
		}
		if d == 0 {
			continue
		}
		if dir != 0 && d != dir {
			turns = append(turns, vs[i-1])
		}
		dir = d
	}
	turns = append(turns, vs[len(vs)-1])

	var amps []float64
	for i := 1; i < len(turns); i++ {
		if a := math.Abs(turns[i] - turns[i-1]); a > minAmp {
			amps = append(amps, a)
		}
	}
	return amps
}

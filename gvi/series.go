package gvi

import (
	"math"

	"github.com/montanaflynn/stats"
)

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// valid returns the readings with missing and non-finite entries dropped.
func valid(vs []float64) []float64 {
	out := make([]float64, 0, len(vs))
	for _, v := range vs {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

// mapValid applies f to every valid reading and keeps only the finite
// results. Reductions over the output therefore ignore both missing
// samples and samples the transform pushed out of its domain.
func mapValid(vs []float64, f func(float64) float64) []float64 {
	out := make([]float64, 0, len(vs))
	for _, v := range vs {
		if !isFinite(v) {
			continue
		}
		if r := f(v); isFinite(r) {
			out = append(out, r)
		}
	}
	return out
}

// nanMean averages the valid readings.
func nanMean(vs []float64) (float64, error) {
	v := valid(vs)
	if len(v) == 0 {
		return 0, ErrUndefined
	}
	m, _ := stats.Mean(v)
	return m, nil
}

func nanMedian(vs []float64) (float64, error) {
	v := valid(vs)
	if len(v) == 0 {
		return 0, ErrUndefined
	}
	m, _ := stats.Median(v)
	return m, nil
}

// nanVar is the population variance of the valid readings.
func nanVar(vs []float64) (float64, error) {
	v := valid(vs)
	if len(v) == 0 {
		return 0, ErrUndefined
	}
	m, _ := stats.PopulationVariance(v)
	return m, nil
}

// nanStd is the population standard deviation of the valid readings.
func nanStd(vs []float64) (float64, error) {
	v := valid(vs)
	if len(v) == 0 {
		return 0, ErrUndefined
	}
	m, _ := stats.StandardDeviationPopulation(v)
	return m, nil
}

// fillMissing replaces invalid readings with fill.
func fillMissing(vs []float64, fill float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		if isFinite(v) {
			out[i] = v
		} else {
			out[i] = fill
		}
	}
	return out
}

// diffN computes the n-th order discrete difference of vs by differencing
// n times. Invalid readings poison every difference they touch, which the
// reductions above then skip.
func diffN(vs []float64, n int) []float64 {
	out := append([]float64(nil), vs...)
	for k := 0; k < n && len(out) > 0; k++ {
		next := make([]float64, len(out)-1)
		for i := range next {
			next[i] = out[i+1] - out[i]
		}
		out = next
	}
	return out
}

// diffOrder converts a lag in minutes to a difference order, rounding
// half away from zero.
func diffOrder(minutes, interval float64) int {
	return int(math.Floor(minutes/interval + 0.5))
}

// movingAverage smooths vs with a flat window, keeping only positions
// where the window fully overlaps the series. The result has
// len(vs)-window+1 entries, or none when the window does not fit.
func movingAverage(vs []float64, window int) []float64 {
	if window <= 0 || window > len(vs) {
		return nil
	}
	out := make([]float64, len(vs)-window+1)
	sum := 0.0
	for i, v := range vs {
		sum += v
		if i >= window {
			sum -= vs[i-window]
		}
		if i >= window-1 {
			out[i-window+1] = sum / float64(window)
		}
	}
	return out
}

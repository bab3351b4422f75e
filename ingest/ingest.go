// Package ingest turns raw CGM samples from files, nightscout, or the
// archive into analysis frames.
package ingest

import (
	"sort"
	"time"

	"glyco/defs"
)

// Frame builds the glucose frame for a batch of readings, sorted into
// ascending time order.
func Frame(readings []defs.Reading) *defs.Frame {
	rs := append([]defs.Reading(nil), readings...)
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Time.Before(rs[j].Time)
	})

	values := make([]float64, len(rs))
	times := make([]time.Time, len(rs))
	for i, r := range rs {
		values[i] = r.Value
		times[i] = r.Time
	}

	f := defs.GlucoseFrame(values)
	_ = f.SetTimes(times)
	return f
}

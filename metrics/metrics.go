// Package metrics registers the Prometheus instruments for ingestion,
// analysis runs, alerts, and report generation.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "glyco_"

// Result labels shared by the counters and histograms.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	ingestTotal     *prometheus.CounterVec
	ingestLatency   *prometheus.HistogramVec
	readingsWritten prometheus.Counter

	analysisTotal   *prometheus.CounterVec
	analysisLatency *prometheus.HistogramVec

	alertsTotal *prometheus.CounterVec

	reportTotal   *prometheus.CounterVec
	reportLatency *prometheus.HistogramVec
)

// Init registers the instruments. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		ingestTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_total",
				Help: "Total ingest pulls by result",
			},
			[]string{"result"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest pull latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		readingsWritten = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "readings_written_total",
				Help: "Total new readings written to the archive",
			},
		)

		analysisTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "analysis_total",
				Help: "Total analysis runs by result",
			},
			[]string{"result"},
		)
		analysisLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "analysis_latency_seconds",
				Help:    "Analysis run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		alertsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_total",
				Help: "Total raised alerts by index",
			},
			[]string{"index"},
		)

		reportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_total",
				Help: "Total generated reports by format and result",
			},
			[]string{"format", "result"},
		)
		reportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_latency_seconds",
				Help:    "Report generation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			ingestTotal,
			ingestLatency,
			readingsWritten,
			analysisTotal,
			analysisLatency,
			alertsTotal,
			reportTotal,
			reportLatency,
		)
	})
}

// ObserveIngest records one ingest pull.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if ingestTotal != nil {
		ingestTotal.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddReadingsWritten counts newly archived readings.
func AddReadingsWritten(count int) {
	if count <= 0 {
		return
	}
	if readingsWritten != nil {
		readingsWritten.Add(float64(count))
	}
}

// ObserveAnalysis records one analysis run.
func ObserveAnalysis(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if analysisTotal != nil {
		analysisTotal.WithLabelValues(result).Inc()
	}
	if analysisLatency != nil {
		analysisLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncAlert counts a raised alert.
func IncAlert(index string) {
	if index == "" {
		index = "unknown"
	}
	if alertsTotal != nil {
		alertsTotal.WithLabelValues(index).Inc()
	}
}

// ObserveReport records one report generation.
func ObserveReport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if reportTotal != nil {
		reportTotal.WithLabelValues(format, result).Inc()
	}
	if reportLatency != nil {
		reportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

package ingestion

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for folder imports.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	FilesProcessed *prometheus.CounterVec
	HuntersCreated prometheus.Counter
	Retries        prometheus.Counter
	FileDuration   prometheus.Histogram
}

// NewMetrics registers the import metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FilesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "permits_import_files_total",
			Help: "Files processed by the import, by outcome",
		}, []string{"outcome"}),
		HuntersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "permits_import_hunters_created_total",
			Help: "Hunters created by the import",
		}),
		Retries: factory.NewCounter(prometheus.CounterOpts{
			Name: "permits_import_retries_total",
			Help: "File attempts retried after database contention",
		}),
		FileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "permits_import_file_duration_seconds",
			Help:    "Time spent importing one file, retries included",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// ObserveFile records the outcome and duration of one file.
// Call with time.Now() at the start of the file.
func (m *Metrics) ObserveFile(status FileStatus, start time.Time) {
	if m == nil {
		return
	}
	m.FilesProcessed.WithLabelValues(string(status)).Inc()
	m.FileDuration.Observe(time.Since(start).Seconds())
}

// IncrementHuntersCreated records a committed hunter creation.
func (m *Metrics) IncrementHuntersCreated() {
	if m == nil {
		return
	}
	m.HuntersCreated.Inc()
}

// IncrementRetries records a contention retry.
func (m *Metrics) IncrementRetries() {
	if m == nil {
		return
	}
	m.Retries.Inc()
}

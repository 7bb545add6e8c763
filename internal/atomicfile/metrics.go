package atomicfile

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PublishTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atomicfile_publish_total",
			Help: "Total number of files published.",
		},
	)

	PublishBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atomicfile_publish_bytes_total",
			Help: "Total number of bytes published.",
		},
	)

	PublishFailureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atomicfile_publish_failure_total",
			Help: "Total number of failed publishes, by the step which failed.",
		},
		[]string{"step"},
	)

	PublishDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "atomicfile_publish_duration_seconds",
			Help:    "Duration of publishes in seconds including all syncs.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
	)

	TemporaryFilesRemovedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atomicfile_temporary_files_removed_total",
			Help: "Total number of leftover temporary files removed.",
		},
	)
)

// RegisterMetrics registers all metrics collectors with the given prometheus registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	metrics := []prometheus.Collector{
		PublishTotal,
		PublishBytes,
		PublishFailureTotal,
		PublishDuration,
		TemporaryFilesRemovedTotal,
	}
	for _, metric := range metrics {
		if err := registerer.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

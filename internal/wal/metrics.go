package wal

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AppendTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_append_total",
			Help: "Total number of records appended to the log.",
		},
	)

	AppendBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_append_bytes_total",
			Help: "Total number of bytes appended to the log including record headers.",
		},
	)

	AppendFailureTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_append_failure_total",
			Help: "Total number of appends which failed.",
		},
	)

	AppendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wal_append_duration_seconds",
			Help:    "Duration of appends in seconds including the sync.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16),
		},
	)

	ReadRecordTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_read_record_total",
			Help: "Total number of records read from the log.",
		},
	)

	ReadRecordBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_read_record_bytes_total",
			Help: "Total number of bytes read from the log including record headers.",
		},
	)

	ReadStopTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wal_read_stop_total",
			Help: "Total number of times reading the log stopped, by reason.",
		},
		[]string{"reason"},
	)
)

// RegisterMetrics registers all metrics collectors with the given prometheus registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	metrics := []prometheus.Collector{
		AppendTotal,
		AppendBytes,
		AppendFailureTotal,
		AppendDuration,
		ReadRecordTotal,
		ReadRecordBytes,
		ReadStopTotal,
	}
	for _, metric := range metrics {
		if err := registerer.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

package wal

import (
	"github.com/prometheus/client_golang/prometheus"

	intatomicfile "github.com/backbone81/durable-kv/internal/atomicfile"
	intwal "github.com/backbone81/durable-kv/internal/wal"
)

// RegisterMetrics registers all metrics collectors of the log and of the atomic publisher with the given prometheus
// registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	if err := intwal.RegisterMetrics(registerer); err != nil {
		return err
	}
	if err := intatomicfile.RegisterMetrics(registerer); err != nil {
		return err
	}
	return nil
}

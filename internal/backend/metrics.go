package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects per-disk operation counts, latencies and transferred bytes.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
}

// NewMetrics registers the backend collectors on reg. Returns nil when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	return &Metrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "medialib_backend_operations_total",
				Help: "Total number of backend operations by disk, operation and status",
			},
			[]string{"disk", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medialib_backend_operation_duration_seconds",
				Help:    "Duration of backend operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"disk", "operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "medialib_backend_bytes_transferred_total",
				Help: "Total bytes read from or written to backend disks",
			},
			[]string{"disk", "direction"},
		),
	}
}

func (m *Metrics) observe(disk, op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(disk, op, status).Inc()
	m.operationDuration.WithLabelValues(disk, op).Observe(elapsed.Seconds())
}

func (m *Metrics) addBytes(disk, direction string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesTransferred.WithLabelValues(disk, direction).Add(float64(n))
}

package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dittosmb/pkg/metrics"
)

// smbMetrics is the Prometheus implementation of metrics.SMBMetrics.
type smbMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        *prometheus.GaugeVec
	oplockBreaks    *prometheus.CounterVec
	oplockWait      *prometheus.HistogramVec
}

// NewSMBMetrics creates SMB metrics on the global registry.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewSMBMetrics() metrics.SMBMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return NewSMBMetricsWith(metrics.GetRegistry())
}

// NewSMBMetricsWith registers SMB metrics on reg.
func NewSMBMetricsWith(reg prometheus.Registerer) metrics.SMBMetrics {
	return &smbMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittosmb_requests_total",
				Help: "Total number of SMB requests by command, share and NT status",
			},
			[]string{"command", "share", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittosmb_request_duration_milliseconds",
				Help: "Duration of SMB requests in milliseconds",
				// Sub-millisecond cache hits up to the 35s oplock break timeout.
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 1000, 35000},
			},
			[]string{"command", "share"},
		),
		inFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dittosmb_requests_in_flight",
				Help: "SMB requests currently being processed",
			},
			[]string{"command", "share"},
		),
		oplockBreaks: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittosmb_oplock_breaks_total",
				Help: "Blocking oplock breaks by outcome",
			},
			[]string{"result"}, // acknowledged, timeout, notify_failed, canceled
		),
		oplockWait: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dittosmb_oplock_break_wait_seconds",
				Help:    "Time a request waited for an oplock break to complete",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 35},
			},
			[]string{"result"},
		),
	}
}

func (m *smbMetrics) RecordRequest(command, share string, duration time.Duration, status string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(command, share, status).Inc()
	m.requestDuration.WithLabelValues(command, share).Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *smbMetrics) RecordRequestStart(command, share string) {
	if m == nil {
		return
	}
	m.inFlight.WithLabelValues(command, share).Inc()
}

func (m *smbMetrics) RecordRequestEnd(command, share string) {
	if m == nil {
		return
	}
	m.inFlight.WithLabelValues(command, share).Dec()
}

func (m *smbMetrics) RecordOplockBreak(result string, wait time.Duration) {
	if m == nil {
		return
	}
	m.oplockBreaks.WithLabelValues(result).Inc()
	m.oplockWait.WithLabelValues(result).Observe(wait.Seconds())
}

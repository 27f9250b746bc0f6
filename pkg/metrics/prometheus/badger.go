package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dittosmb/pkg/metrics"
)

// badgerMetrics is the Prometheus implementation of metrics.BadgerMetrics.
type badgerMetrics struct {
	cacheHitRatio *prometheus.GaugeVec
	cacheHits     *prometheus.GaugeVec
	cacheMisses   *prometheus.GaugeVec
}

// NewBadgerMetrics creates BadgerDB metrics on the global registry.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewBadgerMetrics() metrics.BadgerMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return NewBadgerMetricsWith(metrics.GetRegistry())
}

// NewBadgerMetricsWith registers BadgerDB metrics on reg.
func NewBadgerMetricsWith(reg prometheus.Registerer) metrics.BadgerMetrics {
	return &badgerMetrics{
		cacheHitRatio: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dittosmb_badger_cache_hit_ratio",
				Help: "BadgerDB cache hit ratio (0.0 to 1.0) by cache type",
			},
			[]string{"cache_type"}, // "block", "index"
		),
		cacheHits: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dittosmb_badger_cache_hits",
				Help: "Cumulative BadgerDB cache hits by cache type",
			},
			[]string{"cache_type"},
		),
		cacheMisses: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dittosmb_badger_cache_misses",
				Help: "Cumulative BadgerDB cache misses by cache type",
			},
			[]string{"cache_type"},
		),
	}
}

// RecordCacheStats publishes a snapshot of one cache's counters. Badger
// reports cumulative values, so they are exported as gauges.
func (m *badgerMetrics) RecordCacheStats(cacheType string, hits, misses uint64, ratio float64) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(cacheType).Set(float64(hits))
	m.cacheMisses.WithLabelValues(cacheType).Set(float64(misses))
	m.cacheHitRatio.WithLabelValues(cacheType).Set(ratio)
}

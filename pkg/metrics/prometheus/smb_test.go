package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMBMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, ok := NewSMBMetricsWith(reg).(*smbMetrics)
	require.True(t, ok)

	m.RecordRequestStart("SET_INFORMATION", "public")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight.WithLabelValues("SET_INFORMATION", "public")))

	m.RecordRequest("SET_INFORMATION", "public", 2*time.Millisecond, "STATUS_SUCCESS")
	m.RecordRequest("SET_INFORMATION", "public", time.Millisecond, "STATUS_ACCESS_DENIED")
	m.RecordRequestEnd("SET_INFORMATION", "public")

	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight.WithLabelValues("SET_INFORMATION", "public")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("SET_INFORMATION", "public", "STATUS_SUCCESS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("SET_INFORMATION", "public", "STATUS_ACCESS_DENIED")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))

	m.RecordOplockBreak("timeout", 35*time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.oplockBreaks.WithLabelValues("timeout")))
}

func TestBadgerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, ok := NewBadgerMetricsWith(reg).(*badgerMetrics)
	require.True(t, ok)

	m.RecordCacheStats("block", 30, 10, 0.75)
	assert.Equal(t, 30.0, testutil.ToFloat64(m.cacheHits.WithLabelValues("block")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.cacheMisses.WithLabelValues("block")))
	assert.Equal(t, 0.75, testutil.ToFloat64(m.cacheHitRatio.WithLabelValues("block")))
}

func TestNilReceiversAreNoops(t *testing.T) {
	var s *smbMetrics
	var b *badgerMetrics
	assert.NotPanics(t, func() {
		s.RecordRequest("X", "y", time.Second, "STATUS_SUCCESS")
		s.RecordRequestStart("X", "y")
		s.RecordRequestEnd("X", "y")
		s.RecordOplockBreak("acknowledged", time.Millisecond)
		b.RecordCacheStats("index", 1, 1, 0.5)
	})
}

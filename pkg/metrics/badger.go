package metrics

// BadgerMetrics reports BadgerDB cache effectiveness.
type BadgerMetrics interface {
	// RecordCacheStats publishes cumulative hit/miss counts and the hit
	// ratio for a cache ("block" or "index").
	RecordCacheStats(cacheType string, hits, misses uint64, ratio float64)
}

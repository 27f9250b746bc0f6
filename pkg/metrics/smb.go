package metrics

import "time"

// SMBMetrics provides observability for SMB command handling.
//
// Implementations are optional: pass nil to disable collection.
//
//	m := prometheus.NewSMBMetrics() // nil unless InitRegistry was called
//	h := handlers.NewHandler(store, oplocks, m)
type SMBMetrics interface {
	// RecordRequest records a completed command with its share, duration
	// and NT status name (e.g. "STATUS_SUCCESS").
	RecordRequest(command string, share string, duration time.Duration, status string)

	// RecordRequestStart increments the in-flight gauge.
	RecordRequestStart(command string, share string)

	// RecordRequestEnd decrements the in-flight gauge.
	RecordRequestEnd(command string, share string)

	// RecordOplockBreak records the outcome of a blocking oplock break
	// ("acknowledged", "timeout", "notify_failed", "canceled") and how long
	// the requester waited.
	RecordOplockBreak(result string, wait time.Duration)
}

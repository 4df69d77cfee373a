package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Committer metrics (Table Committer / OCC, §4.2)
	CommitAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parquedb_commit_attempts_total",
			Help: "Total number of commit attempts by namespace and outcome",
		},
		[]string{"namespace", "outcome"}, // outcome: committed, etag_mismatch, timeout, error
	)

	CommitConflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parquedb_commit_conflicts_total",
			Help: "Total number of ETag conflicts observed during commit",
		},
		[]string{"namespace"},
	)

	CommitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parquedb_commit_duration_seconds",
			Help:    "Time taken to complete a commit, including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"namespace"},
	)

	SnapshotIDCurrent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "parquedb_snapshot_id_current",
			Help: "Current snapshot ID per namespace",
		},
		[]string{"namespace"},
	)

	// WAL metrics (Event Log, §4.3)
	WALPendingEvents = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "parquedb_wal_pending_events",
			Help: "Number of events currently queued but not yet flushed",
		},
		[]string{"namespace"},
	)

	WALFlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parquedb_wal_flush_duration_seconds",
			Help:    "Time taken to flush a batch of pending events to a segment",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"namespace"},
	)

	WALBackpressureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parquedb_wal_backpressure_total",
			Help: "Total number of append calls rejected due to backpressure",
		},
		[]string{"namespace"},
	)

	WALCompactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parquedb_wal_compactions_total",
			Help: "Total number of compaction runs that merged small segments",
		},
		[]string{"namespace"},
	)

	WALArchivedSegmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parquedb_wal_archived_segments_total",
			Help: "Total number of event segments moved to archival storage",
		},
		[]string{"namespace"},
	)

	// Index metrics (§4.5)
	IndexUpdateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parquedb_index_update_duration_seconds",
			Help:    "Time taken to apply an incremental row-group update to an index",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"namespace", "index_type"},
	)

	IndexRowGroupsChanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parquedb_index_row_groups_changed_total",
			Help: "Total number of row groups classified as added/modified/removed during index update",
		},
		[]string{"namespace", "index_type", "change"},
	)

	IndexListenerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parquedb_index_listener_errors_total",
			Help: "Total number of errors raised by index-change listeners",
		},
		[]string{"namespace"},
	)

	// Sync engine metrics (§4.10)
	SyncBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parquedb_sync_bytes_total",
			Help: "Total bytes transferred during sync by direction",
		},
		[]string{"direction"}, // push, pull
	)

	SyncFileErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parquedb_sync_file_errors_total",
			Help: "Total number of per-file errors encountered during push/pull",
		},
		[]string{"operation"}, // upload, download
	)

	// Query executor metrics (§4.8)
	QueryRowGroupsScanned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parquedb_query_row_groups_scanned_total",
			Help: "Total row groups read while evaluating a query",
		},
		[]string{"namespace"},
	)

	QueryRowGroupsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parquedb_query_row_groups_skipped_total",
			Help: "Total row groups skipped via statistics-based pushdown",
		},
		[]string{"namespace"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parquedb_query_duration_seconds",
			Help:    "Time taken to execute a find() call end to end",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"namespace"},
	)
)

func init() {
	prometheus.MustRegister(CommitAttemptsTotal)
	prometheus.MustRegister(CommitConflictsTotal)
	prometheus.MustRegister(CommitDuration)
	prometheus.MustRegister(SnapshotIDCurrent)

	prometheus.MustRegister(WALPendingEvents)
	prometheus.MustRegister(WALFlushDuration)
	prometheus.MustRegister(WALBackpressureTotal)
	prometheus.MustRegister(WALCompactionsTotal)
	prometheus.MustRegister(WALArchivedSegmentsTotal)

	prometheus.MustRegister(IndexUpdateDuration)
	prometheus.MustRegister(IndexRowGroupsChanged)
	prometheus.MustRegister(IndexListenerErrorsTotal)

	prometheus.MustRegister(SyncBytesTotal)
	prometheus.MustRegister(SyncFileErrorsTotal)

	prometheus.MustRegister(QueryRowGroupsScanned)
	prometheus.MustRegister(QueryRowGroupsSkipped)
	prometheus.MustRegister(QueryDuration)
}

// Handler returns the Prometheus HTTP handler for embedding in a caller's mux.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

/*
Package metrics provides Prometheus metrics collection and exposition for
ParqueDB.

Metrics are package-level prometheus.Collector values, registered at
package init with prometheus.MustRegister, following the pattern used
throughout the engine (rather than a request-scoped registry). Handler
returns the standard promhttp handler for embedding in a caller's own
HTTP mux; ParqueDB itself does not run a server.

# Groups

  - Committer: commit attempts by outcome, ETag conflicts, commit
    latency, and the current snapshot id
  - WAL: pending queue depth, flush latency, backpressure rejections,
    compaction and archival counts
  - Index: per-index-type update latency, row-group change counts, and
    listener errors
  - Sync: push/pull byte counts and per-file error counts
  - Query: row groups scanned vs. skipped by statistics pushdown, and
    find() latency

Use NewTimer() at the start of an operation and ObserveDuration /
ObserveDurationVec at the end to record latency histograms.
*/
package metrics

// Package wal implements the event log (spec §4.3): a bounded pending
// queue with backpressure, adaptive flush thresholds, an at-most-one
// concurrent flush per dataset, compaction of small segments, and
// archival/pruning by age. Segment numbers come from a per-WAL counter,
// and every flushed segment is recorded in the dataset's segment
// manifest with a conditional write. The background archival/pruning loop follows the
// teacher's ticker+stopCh lifecycle (Start/Stop pairs, pkg/events).
package wal

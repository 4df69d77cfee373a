// Package committer implements the optimistic-concurrency table
// committer (spec §4.2): it produces new immutable metadata files and
// atomically advances version-hint.text with compare-and-swap on its
// ETag, retrying conflicts with exponential backoff and jitter. The
// mutex-guarded engine wrapping a storage.Store mirrors the teacher's
// FSM-over-Store shape. Commits are serialized per namespace by an
// in-process lock whose entry is cleared when acquisition times out.
package committer

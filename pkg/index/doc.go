// Package index orchestrates the per-namespace index substrate (spec
// §4.5): it diffs row-group checksums published alongside each table
// snapshot against what each persisted index last saw, classifies the
// change as added/modified/removed, and fans the change out to the
// registered hash/bloom/vector/fts listeners. It also carries the
// listener error policy from spec §9.
package index

// Package hashindex implements the exact-match secondary index over a
// single entity field (spec §4.5): an in-memory map from a field
// value's hash to the row pointers ({rowGroup, rowOffset, docId}) that
// carry it, persisted in the compact varint-encoded format from spec
// §4.7. The index stores a hash of the key, not the key itself —
// lookups return candidate pointers that the caller verifies against
// the actual row.
package hashindex

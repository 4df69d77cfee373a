// Package variant implements the tagged field-value sum type used for
// ParqueDB's $data blob (spec §4.6, §9): {null, bool, i64, f64, string,
// bytes, timestamp, list, map}. A Value encodes to a compact binary
// form for storage inside a Parquet BYTE_ARRAY column and decodes back
// to a Go any (map[string]any / []any / primitives) for the query and
// mutation executors.
package variant

// Package parquetio serializes entities to and from Parquet segment
// files (spec §4.6): core fields are always top-level columns,
// remaining user fields are Variant-encoded into a $data column unless
// named in a collection's shredFields, in which case they get their
// own top-level column. Row-group min/max/null-count statistics are
// computed at write time for predicate pushdown during query planning.
package parquetio

// Package parquedb is the embeddable facade: it wires the table
// committer, index substrate, query executor, and mutation executor
// into one per-namespace API (spec §4, "Backends"). Durable persistence
// (committer/wal/replay/parquetio) and the sync/branch/conflict layers
// are independent, fully-implemented packages; this facade's default
// Table keeps its working set in memory behind the same interfaces
// those packages already consume, so the wiring demonstrated here is
// the same wiring a parquet-file-backed Table would need.
package parquedb

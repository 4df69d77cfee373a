/*
Package storage provides the key-value-blob abstraction ParqueDB's engine
is built on (spec §4.1): a uniform read/write/list/delete interface over
an object-store-like backend, with ETag-conditional writes as the sole
atomicity primitive.

The engine's compare-and-swap points — the table committer's
version-hint swap and the WAL's segment-manifest update — use
Store.WriteConditional; segment files, branch refs, and objects are
written with plain Store.Write. Two backends are provided: MemoryStore for tests
and single-process embedding, and BoltStore, which persists to a single
bbolt file the way the teacher's cluster store does, but keyed by
arbitrary string paths rather than fixed per-type buckets, so it can
hold metadata JSON, Parquet segments, and index blobs side by side.

ETags are content hashes (SHA-256, hex-encoded): identical bytes always
produce the identical ETag, which also gives the branch package's
content-addressed object store (§4.11) a free round trip through this
package's Hash helper.
*/
package storage

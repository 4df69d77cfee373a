/*
Package model defines ParqueDB's core data model (spec §3): entities,
events, schemas, table metadata, commits, and sync manifests. It has no
dependency on storage, parquet, or any engine component — everything
here is a plain value type plus the handful of pure functions (ID
generation, canonical JSON) that every other package needs a single
shared definition of.
*/
package model

// Package mutation implements the update operators, optimistic version
// check, upsert, and soft delete/restore semantics of spec §4.9. It
// enforces the read-only error on every write path (spec §4.8).
package mutation

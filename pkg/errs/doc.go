// Package errs defines the closed error taxonomy ParqueDB surfaces to
// callers (spec §6/§7): storage-layer, concurrency, validation,
// integrity, and resource errors. Every type here implements error and
// supports errors.As/errors.Is. Each also implements ToJSON, producing
// the {code, name, context} transport envelope the engine uses when an
// error crosses a process boundary (e.g. the sync engine's per-file
// error list).
package errs

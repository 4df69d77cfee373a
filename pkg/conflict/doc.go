// Package conflict implements the conflict detection and resolution
// strategies of spec §4.12: classifying divergent concurrent edits into
// concurrent_update/delete_update/create_create conflicts, and
// resolving them via built-in, composite, or custom strategies.
package conflict

// Package query implements the filter matcher, statistics-based row
// group planner, and find() executor described in spec §4.8: a
// MongoDB-shaped filter language evaluated against flattened entity
// maps, with a direct $id predicate routed to the Source's point lookup
// and $text to the FTS index ahead of any row-group scan.
package query

// Package vector implements the HNSW (hierarchical navigable small
// world) approximate nearest-neighbor index (spec §4.5, GLOSSARY): an
// arena of nodes addressed by integer index, with per-layer neighbor
// lists stored as index vectors (spec §9 "pointer graphs"). Deletion
// tombstones a node: it keeps its layer links and still routes inserts
// and searches, but is never returned as a search result. Links are not
// rebuilt or pruned after a delete.
package vector

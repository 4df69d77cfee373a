// Package varint implements the compact on-disk encoding shared by
// ParqueDB's persisted index structures (spec §4.7): a little-endian
// base-128 continuation varint, FNV-1a 32-bit hashing for canonical
// key bytes, and the versioned 6-byte header + base entry layout used
// by the hash index persistence format (pkg/index/hashindex). Three
// on-disk format versions coexist there; Header.Version selects the
// layout a reader uses, and the grouped v3 layout is built in hashindex
// from this package's varints.
package varint

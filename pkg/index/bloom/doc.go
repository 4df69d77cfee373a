// Package bloom implements the probabilistic-membership filter used to
// prune row groups ahead of a scan (spec §4.5): a per-index global
// filter plus one filter per row group, sized via the standard
// optimal-parameter formulas for a target false-positive rate.
package bloom

// Package fts implements the full-text index (spec §4.5): a BM25
// ranker over tokenized, stemmed, stop-worded text, plus a boolean
// query parser supporting AND/OR/NOT, unary +/- modifiers, quoted
// phrases, and parentheses.
package fts

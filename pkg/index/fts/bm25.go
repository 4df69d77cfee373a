package fts

import (
	"math"
	"sort"
	"sync"
)

// Ref locates the row a document belongs to.
type Ref struct {
	DocID     string
	RowGroup  uint16
	RowOffset uint64
}

type document struct {
	ref       Ref
	rawTokens []string
	terms     []string
	termFreq  map[string]int
}

// Config tunes BM25 scoring (spec §4.5).
type Config struct {
	K1 float64
	B  float64
}

// DefaultConfig returns the standard BM25 parameters.
func DefaultConfig() Config { return Config{K1: 1.2, B: 0.75} }

// Index is the BM25-scored full-text index for one namespace field (spec §4.5).
type Index struct {
	mu          sync.RWMutex
	cfg         Config
	docs        map[string]*document
	postings    map[string]map[string]int // term -> docID -> freq
	totalLength int
	version     uint64
}

// New returns an empty Index.
func New(cfg Config) *Index {
	return &Index{cfg: cfg, docs: map[string]*document{}, postings: map[string]map[string]int{}}
}

// Version returns the monotonically increasing mutation counter.
func (ix *Index) Version() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.version
}

// Add indexes text under ref, replacing any prior document with the same DocID.
func (ix *Index) Add(ref Ref, text string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(ref.DocID)

	raw := rawTokens(text)
	terms := indexTerms(raw)
	freq := map[string]int{}
	for _, t := range terms {
		freq[t]++
	}
	ix.docs[ref.DocID] = &document{ref: ref, rawTokens: raw, terms: terms, termFreq: freq}
	for t, f := range freq {
		bucket, ok := ix.postings[t]
		if !ok {
			bucket = map[string]int{}
			ix.postings[t] = bucket
		}
		bucket[ref.DocID] = f
	}
	ix.totalLength += len(terms)
	ix.version++
}

// Remove deletes the document with docID, if present.
func (ix *Index) Remove(docID string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	removed := ix.removeLocked(docID)
	if removed {
		ix.version++
	}
	return removed
}

func (ix *Index) removeLocked(docID string) bool {
	d, ok := ix.docs[docID]
	if !ok {
		return false
	}
	for t := range d.termFreq {
		delete(ix.postings[t], docID)
		if len(ix.postings[t]) == 0 {
			delete(ix.postings, t)
		}
	}
	ix.totalLength -= len(d.terms)
	delete(ix.docs, docID)
	return true
}

// Remap rewrites row-group numbers after compaction, dropping entries
// for row groups absent from mapping (spec §4.5).
func (ix *Index) Remap(mapping map[uint16]uint16) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for docID, d := range ix.docs {
		newRG, ok := mapping[d.ref.RowGroup]
		if !ok {
			ix.removeLocked(docID)
			continue
		}
		d.ref.RowGroup = newRG
	}
	ix.version++
}

// Result is one ranked FTS match.
type Result struct {
	Ref   Ref
	Score float64
}

// Search routes to a boolean evaluation when q contains boolean syntax
// (operators, modifiers, phrases, parens); otherwise it scores q as a
// plain disjunction of its terms (spec §4.5).
func (ix *Index) Search(q string) []Result {
	if HasBooleanSyntax(q) {
		return ix.SearchBoolean(q)
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	terms := indexTerms(rawTokens(q))
	matches := map[string]bool{}
	for _, t := range terms {
		for docID := range ix.postings[t] {
			matches[docID] = true
		}
	}
	return ix.scoreAndRank(terms, matches)
}

// SearchBoolean evaluates q's parsed boolean tree against every
// document and BM25-scores the surviving matches using the positive
// (non-excluded) terms in the query (spec §4.5).
func (ix *Index) SearchBoolean(q string) []Result {
	tree := Parse(q)
	if tree == nil {
		return nil
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	matches := map[string]bool{}
	for docID, d := range ix.docs {
		if evalNode(tree, d) {
			matches[docID] = true
		}
	}
	return ix.scoreAndRank(positiveTerms(tree), matches)
}

func positiveTerms(n *Node) []string {
	if n == nil || n.Excluded {
		return nil
	}
	switch n.Kind {
	case KindTerm:
		return []string{n.Term}
	case KindPhrase:
		return indexTerms(n.Phrase)
	case KindAnd, KindOr:
		return append(positiveTerms(n.Left), positiveTerms(n.Right)...)
	case KindAndNot:
		return positiveTerms(n.Left)
	default:
		return nil
	}
}

func evalNode(n *Node, d *document) bool {
	var res bool
	switch n.Kind {
	case KindTerm:
		res = d.termFreq[n.Term] > 0
	case KindPhrase:
		res = containsPhrase(d.rawTokens, n.Phrase)
	case KindAnd:
		res = evalNode(n.Left, d) && evalNode(n.Right, d)
	case KindOr:
		res = evalNode(n.Left, d) || evalNode(n.Right, d)
	case KindAndNot:
		// Right is always an Excluded clause, whose evaluation below
		// already negates its match.
		res = evalNode(n.Left, d) && evalNode(n.Right, d)
	default:
		return false
	}
	if n.Excluded {
		return !res
	}
	return res
}

func containsPhrase(haystack, phrase []string) bool {
	if len(phrase) == 0 || len(haystack) < len(phrase) {
		return false
	}
	for i := 0; i+len(phrase) <= len(haystack); i++ {
		match := true
		for j, w := range phrase {
			if haystack[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// scoreAndRank computes BM25 over terms for every docID in matches and
// returns results sorted by descending score. Caller holds ix.mu.
func (ix *Index) scoreAndRank(terms []string, matches map[string]bool) []Result {
	if len(matches) == 0 {
		return nil
	}
	n := len(ix.docs)
	var avgDocLen float64
	if n > 0 {
		avgDocLen = float64(ix.totalLength) / float64(n)
	}

	uniqueTerms := map[string]bool{}
	for _, t := range terms {
		uniqueTerms[t] = true
	}

	results := make([]Result, 0, len(matches))
	for docID := range matches {
		d := ix.docs[docID]
		var score float64
		for t := range uniqueTerms {
			f := d.termFreq[t]
			if f == 0 {
				continue
			}
			nq := len(ix.postings[t])
			idf := math.Log(1 + (float64(n)-float64(nq)+0.5)/(float64(nq)+0.5))
			denom := float64(f) + ix.cfg.K1*(1-ix.cfg.B+ix.cfg.B*float64(len(d.terms))/avgDocLen)
			score += idf * (float64(f) * (ix.cfg.K1 + 1)) / denom
		}
		results = append(results, Result{Ref: d.ref, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Ref.DocID < results[j].Ref.DocID
	})
	return results
}

package fts

import "strings"

// stopwords is a small, common English stop-word list.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"of": true, "in": true, "on": true, "at": true, "to": true, "for": true,
	"with": true, "by": true, "it": true, "this": true, "that": true, "as": true,
}

// rawTokens lowercases text and splits it into alphanumeric words,
// preserving order and keeping stop words — this is the sequence
// phrase matching runs against, so contiguity isn't broken by
// stemming or stop-word removal downstream.
func rawTokens(text string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// indexTerms derives the stemmed, stop-word-filtered term sequence used
// for BM25 scoring from raw tokens.
func indexTerms(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if stopwords[t] {
			continue
		}
		out = append(out, stem(t))
	}
	return out
}

// stem applies a light Porter-style suffix strip — enough to unify
// common inflections without an external stemming library.
func stem(word string) string {
	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "ing") && len(word) > 5:
		return strings.TrimSuffix(word, "ing")
	case strings.HasSuffix(word, "ed") && len(word) > 4:
		return strings.TrimSuffix(word, "ed")
	case strings.HasSuffix(word, "es") && len(word) > 4:
		return strings.TrimSuffix(word, "es")
	case strings.HasSuffix(word, "s") && len(word) > 3 && !strings.HasSuffix(word, "ss"):
		return strings.TrimSuffix(word, "s")
	default:
		return word
	}
}

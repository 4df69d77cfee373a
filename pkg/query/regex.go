package query

import (
	"fmt"
	"regexp"
	"strings"
)

// catastrophicPattern flags the classic nested-quantifier shapes
// (e.g. "(a+)+", "(.*)*") that cause catastrophic backtracking in
// backreference-based regex engines. Go's RE2 engine runs in linear
// time regardless, but $regex still rejects these patterns up front so
// a filter behaves the same way against any future engine (spec §4.8:
// "a safe-regex wrapper that rejects known catastrophic patterns").
var catastrophicPattern = regexp.MustCompile(`\([^()]*[+*]\)[+*?]`)

// CompileSafeRegex compiles pattern for a $regex predicate. options
// supports at least "i" for case-insensitive matching (spec §4.8).
func CompileSafeRegex(pattern, options string) (*regexp.Regexp, error) {
	if catastrophicPattern.MatchString(pattern) {
		return nil, fmt.Errorf("query: rejected unsafe regex pattern %q", pattern)
	}
	if strings.Contains(options, "i") {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

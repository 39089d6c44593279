package extract

import "regexp"

// PatternList is a priority-ordered list of regular expressions. Order is
// part of the contract: FirstMatch returns the first match of the first
// pattern that matches at all, and later patterns are never consulted once
// an earlier one has matched. Reordering a PatternList changes extractor
// semantics.
type PatternList []*regexp.Regexp

// MustPatterns compiles the given expressions into a PatternList,
// panicking on an invalid expression. Intended for package-level pattern
// tables.
func MustPatterns(exprs ...string) PatternList {
	patterns := make(PatternList, 0, len(exprs))
	for _, expr := range exprs {
		patterns = append(patterns, regexp.MustCompile(expr))
	}
	return patterns
}

// FirstMatch scans the patterns in priority order and returns the first
// pattern's first match verbatim. The boolean reports whether any pattern
// matched.
func (pl PatternList) FirstMatch(text string) (string, bool) {
	for _, p := range pl {
		if m := p.FindString(text); m != "" {
			return m, true
		}
	}
	return "", false
}

// MatchesAny reports whether at least one pattern in the list matches.
func (pl PatternList) MatchesAny(text string) bool {
	for _, p := range pl {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

package extract

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultLocalities is the curated list of known neighborhood names checked
// by the locality extractor. Entries are matched case-insensitively by
// substring containment, so overlapping spellings ("hsr" and "hsr layout",
// "whitefield" and "white field") can and do co-match; that is accepted.
// The list is overridable through the monitor configuration.
var DefaultLocalities = []string{
	"whitefield", "koramangala", "hsr", "hsr layout", "indiranagar", "marathahalli",
	"rt nagar", "yelahanka", "jayanagar", "hebbal", "malleshwaram", "banashankari",
	"electronic city", "sarjapur", "bellandur", "rajajinagar", "ulsoor", "frazer town",
	"white field", "sarjapur road", "white-field",
}

// LocalityExtractor collects known locality names occurring in a text.
type LocalityExtractor struct {
	known []string
}

// NewLocalityExtractor creates a LocalityExtractor over the given curated
// list. A nil or empty list falls back to DefaultLocalities.
func NewLocalityExtractor(known []string) *LocalityExtractor {
	if len(known) == 0 {
		known = DefaultLocalities
	}
	return &LocalityExtractor{known: known}
}

// Extract returns the title-cased names of every known locality contained
// in the text, deduplicated and sorted alphabetically. An empty slice means
// no locality was found.
func (e *LocalityExtractor) Extract(text string) []string {
	lower := strings.ToLower(text)

	seen := make(map[string]bool)
	var found []string
	for _, loc := range e.known {
		if !strings.Contains(lower, strings.ToLower(loc)) {
			continue
		}
		name := titleCase(loc)
		if seen[name] {
			continue
		}
		seen[name] = true
		found = append(found, name)
	}

	sort.Strings(found)
	return found
}

// titleCase upper-cases the first letter of every word, where a word starts
// after any non-letter rune ("hsr layout" -> "Hsr Layout", "white-field" ->
// "White-Field").
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) && !prevLetter {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}

package extract

import (
	"regexp"
)

// DefaultIntentPhrases are the intent expressions recognized by the
// relevance classifier. Overridable through the monitor configuration.
var DefaultIntentPhrases = []string{
	"looking for", "looking to rent", "looking to buy", "need a", "need an",
	"flat for rent", "flat for sale", "house for rent", "house for sale",
	"wanted", "seeking", "available for rent",
}

// housingNouns is the fixed fallback vocabulary: any of these words alone
// makes a post worth extracting from.
var housingNouns = regexp.MustCompile(`(?i)\b(flat|apartment|house|rent|sale|bhk|studio)\b`)

// RelevanceClassifier decides whether a post is housing-lead-worthy.
// It is deliberately high-recall and low-precision: false positives are
// expected and cheap, missed leads are the failure mode to minimize.
type RelevanceClassifier struct {
	intents PatternList
}

// NewRelevanceClassifier builds a classifier over the given intent phrases
// (nil or empty falls back to DefaultIntentPhrases). Phrases are matched
// case-insensitively as literal text; operator-supplied phrases from the
// monitor config may contain regex metacharacters, so they are quoted
// before compilation.
func NewRelevanceClassifier(intentPhrases []string) *RelevanceClassifier {
	if len(intentPhrases) == 0 {
		intentPhrases = DefaultIntentPhrases
	}
	exprs := make([]string, 0, len(intentPhrases))
	for _, phrase := range intentPhrases {
		exprs = append(exprs, `(?i)`+regexp.QuoteMeta(phrase))
	}
	return &RelevanceClassifier{intents: MustPatterns(exprs...)}
}

// IsRelevant reports whether the combined title and body text contains
// either an intent phrase or any generic housing noun. Inputs are
// normalized before matching.
func (c *RelevanceClassifier) IsRelevant(title, body string) bool {
	full := Normalize(title + " " + body)
	if c.intents.MatchesAny(full) {
		return true
	}
	return housingNouns.MatchString(full)
}

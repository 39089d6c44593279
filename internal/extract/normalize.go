// Package extract implements the text-analysis pieces of the lead pipeline:
// whitespace normalization, the relevance classifier and the field
// extractors for budget, room configuration, locality and transaction type.
// All extractors operate on normalized text, match case-insensitively and
// report absence instead of failing; none of them has an error path.
package extract

import "strings"

// Normalize collapses every run of whitespace (spaces, tabs, newlines) to a
// single space and trims leading and trailing whitespace. Empty or
// whitespace-only input yields the empty string. Normalize is pure and
// idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

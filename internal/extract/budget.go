package extract

// budgetPatterns lists the recognized budget shapes in priority order:
// currency-symbol-prefixed amounts first, then INR-prefixed, then
// thousands-separated amounts with a trailing currency marker, then bare
// `Nk` shorthand, then lakh and crore spellings. The matched text is
// returned verbatim; amounts are deliberately not parsed into numbers (the
// ledger stores whatever the poster wrote).
var budgetPatterns = MustPatterns(
	`₹\s?[0-9][0-9,.]*[kK]?`,
	`(?i)\bINR\s?[0-9][0-9,.]*[kK]?`,
	`[0-9]{1,3}(?:,?[0-9]{3})+\s*(?:INR|Rs|₹)`,
	`(?i)\b[0-9]+\s?k\b`,
	`(?i)\b[0-9]+\.?[0-9]*\s?(?:lac|lakh|lakhs)\b`,
	`(?i)\b[0-9]+\.?[0-9]*\s?(?:crore|cr)\b`,
)

// ExtractBudget returns the first budget-looking amount in the text, using
// the priority order of budgetPatterns. The boolean is false when no
// pattern matches.
func ExtractBudget(text string) (string, bool) {
	return budgetPatterns.FirstMatch(text)
}

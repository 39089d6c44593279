package extract

import (
	"strings"

	"leadwatch/internal/domain/entity"
)

// Lexical cues for the transaction-type classifier. Rent and sale cues are
// detected independently; the 2x2 truth table below resolves the result.
// A bare "looking for" counts as a rent cue: posts seeking a place without
// naming a transaction are overwhelmingly rental searches.
var (
	rentCues = []string{"rent", "looking for", "looking to rent", "flat for rent", "house for rent"}
	saleCues = []string{"sale", "sell", "buy", "flat for sale", "house for sale", "looking to buy"}
)

// ClassifyTransaction detects rent and sale cues in the text and resolves
// them in priority order: both present -> Both, only sale -> Sale, only
// rent -> Rent, neither -> Unknown. A lead therefore always carries a
// transaction type.
func ClassifyTransaction(text string) entity.TransactionType {
	lower := strings.ToLower(text)

	isRent := containsAny(lower, rentCues)
	isSale := containsAny(lower, saleCues)

	switch {
	case isRent && isSale:
		return entity.TransactionBoth
	case isSale:
		return entity.TransactionSale
	case isRent:
		return entity.TransactionRent
	default:
		return entity.TransactionUnknown
	}
}

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as Lead and RawItem, along with
// their validation rules and domain-specific errors.
package entity

import (
	"fmt"
	"time"
)

// TransactionType classifies the housing intent detected in a lead.
type TransactionType string

// Valid transaction types. Unknown is the default when no cue matches.
const (
	TransactionRent    TransactionType = "Rent"
	TransactionSale    TransactionType = "Sale"
	TransactionBoth    TransactionType = "Both"
	TransactionUnknown TransactionType = "Unknown"
)

// Valid reports whether t is one of the recognized transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionRent, TransactionSale, TransactionBoth, TransactionUnknown:
		return true
	}
	return false
}

// Lead represents a detected housing rent/sale requirement extracted from a
// text post. A Lead is only ever constructed by the lead builder and is
// immutable after construction.
type Lead struct {
	ID              string
	Fingerprint     string
	ObservedAt      time.Time
	Title           string
	BodyExcerpt     string
	Budget          string
	RoomConfig      string
	Localities      []string
	TransactionType TransactionType
	SourceLink      string
}

// Validate checks the Lead invariants: a non-empty id, a recognized
// transaction type and a duplicate-free locality list.
func (l *Lead) Validate() error {
	if l.ID == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	if !l.TransactionType.Valid() {
		return &ValidationError{
			Field:   "transaction_type",
			Message: fmt.Sprintf("unrecognized transaction type %q", l.TransactionType),
		}
	}
	seen := make(map[string]bool, len(l.Localities))
	for _, loc := range l.Localities {
		if seen[loc] {
			return &ValidationError{
				Field:   "localities",
				Message: fmt.Sprintf("duplicate locality %q", loc),
			}
		}
		seen[loc] = true
	}
	return nil
}

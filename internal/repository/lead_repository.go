// Package repository defines the persistence contracts of the application.
// Concrete adapters live under internal/infra/adapter/persistence.
package repository

import (
	"context"

	"leadwatch/internal/domain/entity"
)

// LeadRepository is the durable, append-only dedup ledger of emitted leads.
//
// Consistency contract: within one process lifetime, Append followed by
// Contains (or ContainsFingerprint) for the same lead always observes the
// record; implementations must not defer visibility. Implementations must
// also be safe for Contains/Append interleavings from concurrent commits:
// the check-then-act pair is serialized inside the adapter, so two
// concurrent callers cannot both append the same id.
type LeadRepository interface {
	// Contains reports whether a lead with the given id has previously
	// been appended.
	Contains(ctx context.Context, id string) (bool, error)

	// ContainsFingerprint reports whether a lead with the given content
	// fingerprint has previously been appended. Used as the secondary
	// dedup key for cross-source duplicates carrying different ids.
	ContainsFingerprint(ctx context.Context, fingerprint string) (bool, error)

	// Append durably persists the lead. It returns entity.ErrDuplicateLead
	// when the id is already recorded, and a storage error only on medium
	// failure (disk full, permission denied, connection loss). Records are
	// never rewritten.
	Append(ctx context.Context, lead *entity.Lead) error

	// List returns all recorded leads in append order.
	List(ctx context.Context) ([]*entity.Lead, error)

	// Count returns the number of recorded leads.
	Count(ctx context.Context) (int64, error)
}

// Package source provides implementations for polling upstream post feeds.
// Two sources cover the same communities through different upstreams: a
// search API returning JSON submissions and the per-community RSS feeds.
// Both are unreliable in different ways, so each is wrapped with retry and
// circuit breaker logic and the ingest loop treats a failing source as
// yielding zero items for the cycle.
package source

import (
	"context"

	"leadwatch/internal/domain/entity"
)

// Source is a pollable upstream of raw posts.
type Source interface {
	// Name returns the source identifier (e.g., "search-api", "rss").
	// This is used for logging and metrics labels.
	Name() string

	// Fetch returns the batch of posts observed since the previous call.
	// Implementations track their own high-water mark; callers simply poll.
	// A failed fetch returns a nil slice and the error.
	Fetch(ctx context.Context) ([]entity.RawItem, error)
}

// DefaultCommunities lists the monitored communities when no override is
// configured.
var DefaultCommunities = []string{
	"bangalore",
	"Bengaluru",
	"blr_rentals",
	"India_RealEstate",
	"IndiaHousing",
	"RealEstateIndia",
	"rentalindia",
	"India",
}

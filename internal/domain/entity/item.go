package entity

import "time"

// RawItem is the common input shape produced by the upstream source
// collaborators. Source ids are assigned by the upstream service and may
// differ between two sources describing the same real-world post; the
// dedup fingerprint compensates for that at commit time.
type RawItem struct {
	ID         string
	Title      string
	Body       string
	CreatedAt  time.Time
	SourceLink string
}

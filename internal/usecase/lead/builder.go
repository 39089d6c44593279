// Package lead provides the lead builder use case: the single place where a
// raw upstream item is turned into a structured Lead entity.
package lead

import (
	"regexp"
	"time"

	"leadwatch/internal/domain/entity"
	"leadwatch/internal/extract"
)

// maxExcerptLength bounds the body excerpt carried by a Lead. Matches the
// ledger's stored text length so a lead and its persisted row agree.
const maxExcerptLength = 400

// maxTitleID bounds the length of ids derived from a title as a last
// resort.
const maxTitleID = 20

var nonWord = regexp.MustCompile(`\W+`)

// Clock returns the current time. Injected so tests can pin observed_at.
type Clock func() time.Time

// Builder composes the normalizer, the relevance classifier and the field
// extractors into one record-construction step. Build is side-effect free
// and never fails: a post that is not a lead is a normal outcome, and
// absent fields stay absent rather than becoming errors.
type Builder struct {
	relevance  *extract.RelevanceClassifier
	localities *extract.LocalityExtractor
	now        Clock
}

// NewBuilder creates a Builder. A nil classifier or locality extractor
// falls back to the curated defaults; a nil clock falls back to time.Now.
func NewBuilder(relevance *extract.RelevanceClassifier, localities *extract.LocalityExtractor, now Clock) *Builder {
	if relevance == nil {
		relevance = extract.NewRelevanceClassifier(nil)
	}
	if localities == nil {
		localities = extract.NewLocalityExtractor(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Builder{relevance: relevance, localities: localities, now: now}
}

// Build normalizes the item, applies the relevance filter and, for relevant
// posts, runs every field extractor over the combined text. The boolean is
// false when the post is not a lead. The returned Lead always carries a
// non-empty id and a transaction type.
func (b *Builder) Build(item entity.RawItem) (*entity.Lead, bool) {
	title := extract.Normalize(item.Title)
	body := extract.Normalize(item.Body)

	if !b.relevance.IsRelevant(title, body) {
		return nil, false
	}

	full := title + " " + body

	excerpt := body
	if len(excerpt) > maxExcerptLength {
		excerpt = excerpt[:maxExcerptLength]
	}

	budget, _ := extract.ExtractBudget(full)
	roomConfig, _ := extract.ExtractRoomConfig(full)
	fingerprint := entity.Fingerprint(title, body)

	lead := &entity.Lead{
		ID:              deriveID(item, title, fingerprint),
		Fingerprint:     fingerprint,
		ObservedAt:      b.now().UTC(),
		Title:           title,
		BodyExcerpt:     excerpt,
		Budget:          budget,
		RoomConfig:      roomConfig,
		Localities:      b.localities.Extract(full),
		TransactionType: extract.ClassifyTransaction(full),
		SourceLink:      item.SourceLink,
	}
	return lead, true
}

// deriveID produces a stable dedup key for the item. The source-assigned id
// wins; otherwise the id is derived from the link (last 12 characters after
// stripping non-word runes), then from the title, then from the content
// fingerprint, so it is never empty.
func deriveID(item entity.RawItem, title, fingerprint string) string {
	if item.ID != "" {
		return item.ID
	}
	if item.SourceLink != "" {
		stripped := nonWord.ReplaceAllString(item.SourceLink, "")
		if len(stripped) > 12 {
			stripped = stripped[len(stripped)-12:]
		}
		if stripped != "" {
			return stripped
		}
	}
	if title != "" {
		if len(title) > maxTitleID {
			return title[:maxTitleID]
		}
		return title
	}
	return fingerprint[:12]
}

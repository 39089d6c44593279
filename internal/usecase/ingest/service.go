// Package ingest provides the poll cycle use case: fetching raw items from
// every configured source, turning them into leads, committing new leads to
// the ledger and dispatching notifications.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"leadwatch/internal/domain/entity"
	"leadwatch/internal/observability/metrics"
	"leadwatch/internal/repository"
	"leadwatch/internal/usecase/lead"
	"leadwatch/internal/usecase/notify"

	"golang.org/x/sync/errgroup"
)

// defaultSourceTimeout bounds a single source fetch within a cycle so one
// hanging upstream cannot eat the whole poll interval.
const defaultSourceTimeout = 60 * time.Second

// Source is an upstream that can produce raw items for a cycle. Implemented
// by the infra source adapters.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]entity.RawItem, error)
}

// Service orchestrates one poll cycle: fan out to all sources, build leads
// from the fetched items, dedup against the ledger, append and notify.
type Service struct {
	Sources       []Source
	Builder       *lead.Builder
	LeadRepo      repository.LeadRepository
	NotifyService notify.Service

	sourceTimeout time.Duration
}

// NewService creates a new ingest Service. A non-positive sourceTimeout
// falls back to the default.
func NewService(
	sources []Source,
	builder *lead.Builder,
	leadRepo repository.LeadRepository,
	notifyService notify.Service,
	sourceTimeout time.Duration,
) *Service {
	if sourceTimeout <= 0 {
		sourceTimeout = defaultSourceTimeout
	}
	return &Service{
		Sources:       sources,
		Builder:       builder,
		LeadRepo:      leadRepo,
		NotifyService: notifyService,
		sourceTimeout: sourceTimeout,
	}
}

// CycleStats contains statistics about one poll cycle.
type CycleStats struct {
	Sources      int
	SourceErrors int64
	Items        int64
	Irrelevant   int64
	Duplicated   int64
	Committed    int64
	CommitErrors int64
	Duration     time.Duration
}

// RunCycle fetches every source, builds and commits leads, and dispatches
// notifications for newly committed leads. A failing source contributes
// zero items and never aborts the cycle; persistence errors on individual
// leads are logged and counted while the cycle continues. RunCycle returns
// an error only when the cycle itself is cancelled.
func (s *Service) RunCycle(ctx context.Context) (*CycleStats, error) {
	logger := slog.Default()
	start := time.Now()
	stats := &CycleStats{Sources: len(s.Sources)}

	// Items are collected per source slot so commit order is deterministic
	// regardless of which fetch finishes first.
	results := make([][]entity.RawItem, len(s.Sources))

	var eg errgroup.Group
	for i, src := range s.Sources {
		i, src := i, src
		eg.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
			defer cancel()

			fetchStart := time.Now()
			items, err := src.Fetch(fetchCtx)
			if err != nil {
				atomic.AddInt64(&stats.SourceErrors, 1)
				metrics.RecordSourceFetchError(src.Name(), "fetch_failed")
				logger.Warn("source fetch failed, continuing with remaining sources",
					slog.String("source", src.Name()),
					slog.Any("error", err))
				return nil
			}

			metrics.RecordSourceFetch(src.Name(), time.Since(fetchStart), len(items))
			results[i] = items
			return nil
		})
	}
	// Fetch goroutines never return errors; failures are counted instead.
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("poll cycle cancelled: %w", err)
	}

	for _, items := range results {
		for _, item := range items {
			stats.Items++

			ld, ok := s.Builder.Build(item)
			if !ok {
				stats.Irrelevant++
				metrics.RecordItemIrrelevant()
				continue
			}

			if err := s.commitLead(ctx, ld, stats); err != nil {
				stats.Duration = time.Since(start)
				metrics.RecordPollCycle(stats.Duration, "failure")
				return stats, err
			}
		}
	}

	stats.Duration = time.Since(start)
	status := cycleStatus(stats)
	metrics.RecordPollCycle(stats.Duration, status)

	logger.Info("poll cycle completed",
		slog.Int("sources", stats.Sources),
		slog.Int64("source_errors", stats.SourceErrors),
		slog.Int64("items", stats.Items),
		slog.Int64("irrelevant", stats.Irrelevant),
		slog.Int64("duplicated", stats.Duplicated),
		slog.Int64("committed", stats.Committed),
		slog.Int64("commit_errors", stats.CommitErrors),
		slog.Duration("duration", stats.Duration),
	)

	return stats, nil
}

// commitLead deduplicates one lead against the ledger, appends it and
// dispatches notifications. The notification is sent only after the lead
// is durably recorded, so a sink failure can never cause a re-send on the
// next cycle. Returns an error only on context cancellation.
func (s *Service) commitLead(ctx context.Context, ld *entity.Lead, stats *CycleStats) error {
	logger := slog.Default()

	seen, err := s.LeadRepo.Contains(ctx, ld.ID)
	if err != nil {
		return s.handleStorageError("contains check failed", ld, stats, err)
	}
	if seen {
		stats.Duplicated++
		metrics.RecordLeadDuplicated("id")
		return nil
	}

	seenFp, err := s.LeadRepo.ContainsFingerprint(ctx, ld.Fingerprint)
	if err != nil {
		return s.handleStorageError("fingerprint check failed", ld, stats, err)
	}
	if seenFp {
		stats.Duplicated++
		metrics.RecordLeadDuplicated("fingerprint")
		return nil
	}

	if err := s.LeadRepo.Append(ctx, ld); err != nil {
		// A concurrent commit may have won the race between the check and
		// the append. That is a normal dedup outcome, not an error.
		if errors.Is(err, entity.ErrDuplicateLead) {
			stats.Duplicated++
			metrics.RecordLeadDuplicated("append")
			return nil
		}
		return s.handleStorageError("ledger append failed", ld, stats, err)
	}

	stats.Committed++
	metrics.RecordLeadCommitted()

	// Notification dispatch is fire-and-forget inside the notify service;
	// the detached context keeps in-flight sends alive past cycle end.
	if err := s.NotifyService.NotifyLead(context.WithoutCancel(ctx), ld); err != nil {
		logger.Warn("failed to dispatch notification",
			slog.String("lead_id", ld.ID),
			slog.Any("error", err))
	}

	return nil
}

// handleStorageError logs a storage failure for one lead and decides
// whether the cycle can continue. Context cancellation aborts the cycle;
// everything else is counted and skipped.
func (s *Service) handleStorageError(msg string, ld *entity.Lead, stats *CycleStats, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", msg, err)
	}

	stats.CommitErrors++
	slog.Default().Error(msg+", skipping lead",
		slog.String("lead_id", ld.ID),
		slog.Any("error", err))
	return nil
}

// cycleStatus maps the fetch outcome of a cycle to a metric label.
func cycleStatus(stats *CycleStats) string {
	switch {
	case stats.SourceErrors == 0:
		return "success"
	case stats.SourceErrors < int64(stats.Sources):
		return "partial"
	default:
		return "failure"
	}
}

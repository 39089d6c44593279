package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"leadwatch/internal/domain/entity"
	"leadwatch/internal/usecase/ingest"
	leadUC "leadwatch/internal/usecase/lead"
	"leadwatch/internal/usecase/notify"
)

// mockSource is a Source returning canned items or a canned error.
type mockSource struct {
	name  string
	items []entity.RawItem
	err   error
	delay time.Duration

	mu      sync.Mutex
	fetched int
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Fetch(ctx context.Context) ([]entity.RawItem, error) {
	m.mu.Lock()
	m.fetched++
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

func (m *mockSource) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetched
}

// mockLedger is an in-memory LeadRepository with injectable failures.
type mockLedger struct {
	mu           sync.Mutex
	leads        []*entity.Lead
	ids          map[string]bool
	fingerprints map[string]bool

	containsErr            error
	containsFingerprintErr error
	appendErr              error
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		ids:          make(map[string]bool),
		fingerprints: make(map[string]bool),
	}
}

func (m *mockLedger) Contains(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.containsErr != nil {
		return false, m.containsErr
	}
	return m.ids[id], nil
}

func (m *mockLedger) ContainsFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.containsFingerprintErr != nil {
		return false, m.containsFingerprintErr
	}
	return m.fingerprints[fingerprint], nil
}

func (m *mockLedger) Append(ctx context.Context, lead *entity.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	if m.ids[lead.ID] {
		return entity.ErrDuplicateLead
	}
	m.ids[lead.ID] = true
	m.fingerprints[lead.Fingerprint] = true
	m.leads = append(m.leads, lead)
	return nil
}

func (m *mockLedger) List(ctx context.Context) ([]*entity.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entity.Lead(nil), m.leads...), nil
}

func (m *mockLedger) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.leads)), nil
}

func (m *mockLedger) appended() []*entity.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entity.Lead(nil), m.leads...)
}

// mockNotifyService records every dispatched lead id.
type mockNotifyService struct {
	mu        sync.Mutex
	dispatched []string
	notifyErr  error
}

func (m *mockNotifyService) NotifyLead(ctx context.Context, lead *entity.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatched = append(m.dispatched, lead.ID)
	return m.notifyErr
}

func (m *mockNotifyService) GetChannelHealth() []notify.ChannelHealthStatus {
	return nil
}

func (m *mockNotifyService) Shutdown(ctx context.Context) error {
	return nil
}

func (m *mockNotifyService) dispatchedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.dispatched...)
}

func relevantItem(id, title string) entity.RawItem {
	return entity.RawItem{
		ID:         id,
		Title:      title,
		Body:       "Budget around 25k per month, moving next month.",
		CreatedAt:  time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC),
		SourceLink: fmt.Sprintf("https://example.com/posts/%s", id),
	}
}

func newTestService(sources []ingest.Source, ledger *mockLedger, sink *mockNotifyService) *ingest.Service {
	builder := leadUC.NewBuilder(nil, nil, nil)
	return ingest.NewService(sources, builder, ledger, sink, 2*time.Second)
}

func TestRunCycle_CommitsAndNotifiesNewLeads(t *testing.T) {
	src := &mockSource{name: "search-api", items: []entity.RawItem{
		relevantItem("aaa111", "Looking for 2BHK flat in Koramangala"),
		relevantItem("bbb222", "House for rent near Hebbal lake"),
	}}
	ledger := newMockLedger()
	sink := &mockNotifyService{}

	svc := newTestService([]ingest.Source{src}, ledger, sink)

	stats, err := svc.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if stats.Items != 2 {
		t.Errorf("stats.Items = %d, want 2", stats.Items)
	}
	if stats.Committed != 2 {
		t.Errorf("stats.Committed = %d, want 2", stats.Committed)
	}
	if got := len(ledger.appended()); got != 2 {
		t.Errorf("ledger records = %d, want 2", got)
	}
	if got := sink.dispatchedIDs(); len(got) != 2 || got[0] != "aaa111" || got[1] != "bbb222" {
		t.Errorf("dispatched = %v, want [aaa111 bbb222]", got)
	}
}

func TestRunCycle_SecondCycleIsNoOp(t *testing.T) {
	src := &mockSource{name: "search-api", items: []entity.RawItem{
		relevantItem("aaa111", "Looking for 2BHK flat in Koramangala"),
	}}
	ledger := newMockLedger()
	sink := &mockNotifyService{}

	svc := newTestService([]ingest.Source{src}, ledger, sink)

	if _, err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("first RunCycle() error = %v", err)
	}
	stats, err := svc.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("second RunCycle() error = %v", err)
	}

	if stats.Committed != 0 {
		t.Errorf("second cycle Committed = %d, want 0", stats.Committed)
	}
	if stats.Duplicated != 1 {
		t.Errorf("second cycle Duplicated = %d, want 1", stats.Duplicated)
	}
	if got := sink.dispatchedIDs(); len(got) != 1 {
		t.Errorf("dispatched = %v, want exactly one notification across both cycles", got)
	}
}

func TestRunCycle_CrossSourceFingerprintDedup(t *testing.T) {
	// Same post seen through both upstreams with different source ids.
	first := relevantItem("aaa111", "Looking for 2BHK flat in Koramangala")
	second := relevantItem("zzz999", "Looking for 2BHK flat in Koramangala")

	searchAPI := &mockSource{name: "search-api", items: []entity.RawItem{first}}
	rss := &mockSource{name: "rss", items: []entity.RawItem{second}}
	ledger := newMockLedger()
	sink := &mockNotifyService{}

	svc := newTestService([]ingest.Source{searchAPI, rss}, ledger, sink)

	stats, err := svc.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if stats.Committed != 1 {
		t.Errorf("stats.Committed = %d, want 1", stats.Committed)
	}
	if stats.Duplicated != 1 {
		t.Errorf("stats.Duplicated = %d, want 1 (fingerprint match)", stats.Duplicated)
	}
	if got := sink.dispatchedIDs(); len(got) != 1 {
		t.Errorf("dispatched = %v, want exactly one notification", got)
	}
}

func TestRunCycle_FailingSourceDoesNotBlockOthers(t *testing.T) {
	broken := &mockSource{name: "search-api", err: errors.New("upstream down")}
	healthy := &mockSource{name: "rss", items: []entity.RawItem{
		relevantItem("bbb222", "House for rent near Hebbal lake"),
	}}
	ledger := newMockLedger()
	sink := &mockNotifyService{}

	svc := newTestService([]ingest.Source{broken, healthy}, ledger, sink)

	stats, err := svc.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if stats.SourceErrors != 1 {
		t.Errorf("stats.SourceErrors = %d, want 1", stats.SourceErrors)
	}
	if stats.Committed != 1 {
		t.Errorf("stats.Committed = %d, want 1 from the healthy source", stats.Committed)
	}
}

func TestRunCycle_SlowSourceIsTimedOut(t *testing.T) {
	slow := &mockSource{name: "search-api", delay: time.Minute, items: []entity.RawItem{
		relevantItem("aaa111", "Looking for 2BHK flat in Koramangala"),
	}}
	healthy := &mockSource{name: "rss", items: []entity.RawItem{
		relevantItem("bbb222", "House for rent near Hebbal lake"),
	}}
	ledger := newMockLedger()
	sink := &mockNotifyService{}

	builder := leadUC.NewBuilder(nil, nil, nil)
	svc := ingest.NewService([]ingest.Source{slow, healthy}, builder, ledger, sink, 50*time.Millisecond)

	stats, err := svc.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if stats.SourceErrors != 1 {
		t.Errorf("stats.SourceErrors = %d, want 1 (slow source timed out)", stats.SourceErrors)
	}
	if stats.Committed != 1 {
		t.Errorf("stats.Committed = %d, want 1 from the healthy source", stats.Committed)
	}
}

func TestRunCycle_IrrelevantItemsAreSkipped(t *testing.T) {
	src := &mockSource{name: "rss", items: []entity.RawItem{
		relevantItem("aaa111", "Looking for 2BHK flat in Koramangala"),
		{
			ID:        "ccc333",
			Title:     "Best breakfast spots this weekend",
			Body:      "Tried a new cafe, highly recommend the filter coffee.",
			CreatedAt: time.Now().UTC(),
		},
	}}
	ledger := newMockLedger()
	sink := &mockNotifyService{}

	svc := newTestService([]ingest.Source{src}, ledger, sink)

	stats, err := svc.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if stats.Irrelevant != 1 {
		t.Errorf("stats.Irrelevant = %d, want 1", stats.Irrelevant)
	}
	if stats.Committed != 1 {
		t.Errorf("stats.Committed = %d, want 1", stats.Committed)
	}
}

func TestRunCycle_NotifyFailureDoesNotPreventRecording(t *testing.T) {
	src := &mockSource{name: "rss", items: []entity.RawItem{
		relevantItem("aaa111", "Looking for 2BHK flat in Koramangala"),
	}}
	ledger := newMockLedger()
	sink := &mockNotifyService{notifyErr: errors.New("sink refused dispatch")}

	svc := newTestService([]ingest.Source{src}, ledger, sink)

	stats, err := svc.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if stats.Committed != 1 {
		t.Errorf("stats.Committed = %d, want 1", stats.Committed)
	}
	if got := len(ledger.appended()); got != 1 {
		t.Errorf("ledger records = %d, want 1 despite notify failure", got)
	}

	// The lead is already recorded, so the next cycle must not re-notify.
	if _, err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("second RunCycle() error = %v", err)
	}
	if got := sink.dispatchedIDs(); len(got) != 1 {
		t.Errorf("dispatched = %v, want no re-dispatch after failed notify", got)
	}
}

func TestRunCycle_StorageErrorSkipsLeadAndContinues(t *testing.T) {
	src := &mockSource{name: "rss", items: []entity.RawItem{
		relevantItem("aaa111", "Looking for 2BHK flat in Koramangala"),
		relevantItem("bbb222", "House for rent near Hebbal lake"),
	}}
	ledger := newMockLedger()
	ledger.appendErr = errors.New("disk full")
	sink := &mockNotifyService{}

	svc := newTestService([]ingest.Source{src}, ledger, sink)

	stats, err := svc.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v, storage errors must not abort the cycle", err)
	}

	if stats.CommitErrors != 2 {
		t.Errorf("stats.CommitErrors = %d, want 2", stats.CommitErrors)
	}
	if got := sink.dispatchedIDs(); len(got) != 0 {
		t.Errorf("dispatched = %v, want none when nothing was recorded", got)
	}
}

func TestRunCycle_ConcurrentAppendRaceCountsAsDuplicate(t *testing.T) {
	// The ledger reports the id as unseen but rejects the append, as a
	// concurrent commit winning the check-then-act race would.
	ledger := newMockLedger()
	ledger.appendErr = entity.ErrDuplicateLead
	src := &mockSource{name: "rss", items: []entity.RawItem{
		relevantItem("aaa111", "Looking for 2BHK flat in Koramangala"),
	}}
	sink := &mockNotifyService{}

	svc := newTestService([]ingest.Source{src}, ledger, sink)

	stats, err := svc.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	if stats.Committed != 0 {
		t.Errorf("stats.Committed = %d, want 0", stats.Committed)
	}
	if stats.Duplicated != 1 {
		t.Errorf("stats.Duplicated = %d, want 1", stats.Duplicated)
	}
	if stats.CommitErrors != 0 {
		t.Errorf("stats.CommitErrors = %d, want 0 (duplicate append is not an error)", stats.CommitErrors)
	}
	if got := sink.dispatchedIDs(); len(got) != 0 {
		t.Errorf("dispatched = %v, want none for a lost append race", got)
	}
}

func TestRunCycle_CancelledContext(t *testing.T) {
	src := &mockSource{name: "rss", items: []entity.RawItem{
		relevantItem("aaa111", "Looking for 2BHK flat in Koramangala"),
	}}
	ledger := newMockLedger()
	sink := &mockNotifyService{}

	svc := newTestService([]ingest.Source{src}, ledger, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.RunCycle(ctx); err == nil {
		t.Fatal("RunCycle() expected error for cancelled context")
	}
}

func TestRunCycle_NoSources(t *testing.T) {
	ledger := newMockLedger()
	sink := &mockNotifyService{}

	svc := newTestService(nil, ledger, sink)

	stats, err := svc.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if stats.Items != 0 || stats.Committed != 0 {
		t.Errorf("stats = %+v, want empty cycle", stats)
	}
}

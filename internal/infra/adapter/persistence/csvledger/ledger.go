// Package csvledger provides the default LeadRepository implementation: an
// append-only CSV file with an in-memory id and fingerprint index.
//
// The file format is part of the external contract: a header row naming the
// fields id, timestamp, title, text, budget, room_config, localities,
// transaction_type, link, followed by one row per lead. Rows are appended,
// never rewritten, so any prefix of the file is a valid ledger state and a
// crash mid-cycle cannot corrupt previously committed records.
package csvledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"leadwatch/internal/domain/entity"
	"leadwatch/internal/repository"
)

// maxTextLength bounds the stored body excerpt. Truncation is lossy and
// intentional; the source link leads back to the full post.
const maxTextLength = 400

var header = []string{
	"id", "timestamp", "title", "text", "budget",
	"room_config", "localities", "transaction_type", "link",
}

// Ledger is a CSV-file-backed LeadRepository. The mutex serializes the
// contains/append pair so concurrent commits cannot double-append an id.
type Ledger struct {
	mu           sync.RWMutex
	file         *os.File
	writer       *csv.Writer
	ids          map[string]bool
	fingerprints map[string]bool
	leads        []*entity.Lead
}

// Open opens (or creates) the ledger file at path, writes the header if the
// file is new, and rebuilds the id and fingerprint index from the existing
// rows. The returned Ledger holds the file open for appending; call Close
// when done.
func Open(path string) (*Ledger, error) {
	existing, err := loadRecords(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}

	l := &Ledger{
		file:         f,
		writer:       csv.NewWriter(f),
		ids:          make(map[string]bool, len(existing)),
		fingerprints: make(map[string]bool, len(existing)),
		leads:        existing,
	}

	for _, lead := range existing {
		l.ids[lead.ID] = true
		l.fingerprints[lead.Fingerprint] = true
	}

	if len(existing) == 0 {
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("stat ledger %s: %w", path, err)
		}
		if info.Size() == 0 {
			if err := l.writeRow(header); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("write ledger header: %w", err)
			}
		}
	}

	return l, nil
}

// loadRecords reads every row of an existing ledger file. A missing file is
// not an error; it simply means a fresh ledger. Fingerprints are recomputed
// from the stored title and text, which works because the fingerprint only
// covers a prefix shorter than the stored excerpt.
func loadRecords(path string) ([]*entity.Lead, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	var leads []*entity.Lead
	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ledger %s: %w", path, err)
		}
		if first {
			first = false
			if record[0] == header[0] {
				continue
			}
		}
		leads = append(leads, recordToLead(record))
	}

	return leads, nil
}

// recordToLead converts a CSV row back into a Lead. An unparsable timestamp
// degrades to the zero time rather than failing the whole reload.
func recordToLead(record []string) *entity.Lead {
	observedAt, _ := time.Parse(time.RFC3339, record[1])

	var localities []string
	if record[6] != "" {
		localities = strings.Split(record[6], ", ")
	}

	return &entity.Lead{
		ID:              record[0],
		Fingerprint:     entity.Fingerprint(record[2], record[3]),
		ObservedAt:      observedAt,
		Title:           record[2],
		BodyExcerpt:     record[3],
		Budget:          record[4],
		RoomConfig:      record[5],
		Localities:      localities,
		TransactionType: entity.TransactionType(record[7]),
		SourceLink:      record[8],
	}
}

// Contains implements repository.LeadRepository.
func (l *Ledger) Contains(_ context.Context, id string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ids[id], nil
}

// ContainsFingerprint implements repository.LeadRepository.
func (l *Ledger) ContainsFingerprint(_ context.Context, fingerprint string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fingerprints[fingerprint], nil
}

// Append implements repository.LeadRepository. The row is flushed and
// synced before Append returns, so a lead reported as committed survives a
// process crash.
func (l *Ledger) Append(_ context.Context, lead *entity.Lead) error {
	if err := lead.Validate(); err != nil {
		return fmt.Errorf("append lead: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ids[lead.ID] {
		return entity.ErrDuplicateLead
	}

	text := lead.BodyExcerpt
	if len(text) > maxTextLength {
		text = text[:maxTextLength]
	}

	row := []string{
		lead.ID,
		lead.ObservedAt.UTC().Format(time.RFC3339),
		lead.Title,
		text,
		lead.Budget,
		lead.RoomConfig,
		strings.Join(lead.Localities, ", "),
		string(lead.TransactionType),
		lead.SourceLink,
	}
	if err := l.writeRow(row); err != nil {
		return fmt.Errorf("append lead %s: %w", lead.ID, err)
	}

	l.ids[lead.ID] = true
	l.fingerprints[lead.Fingerprint] = true
	l.leads = append(l.leads, lead)
	return nil
}

// writeRow writes and durably flushes a single CSV row. Callers hold the
// write lock (or exclusive ownership during Open).
func (l *Ledger) writeRow(row []string) error {
	if err := l.writer.Write(row); err != nil {
		return err
	}
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		return err
	}
	return l.file.Sync()
}

// List implements repository.LeadRepository, returning leads in append order.
func (l *Ledger) List(_ context.Context) ([]*entity.Lead, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*entity.Lead, len(l.leads))
	copy(out, l.leads)
	return out, nil
}

// Count implements repository.LeadRepository.
func (l *Ledger) Count(_ context.Context) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int64(len(l.leads)), nil
}

// Close releases the underlying file handle.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

var _ repository.LeadRepository = (*Ledger)(nil)

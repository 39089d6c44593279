// Package postgres provides a PostgreSQL-backed LeadRepository for
// deployments where the ledger must be shared or queried; the default
// deployment uses the CSV ledger instead. The table is append-only by
// construction: the repository only ever inserts.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"leadwatch/internal/domain/entity"
	"leadwatch/internal/repository"
)

// Executor is the subset of database/sql operations the repository needs.
// Both *sql.DB and *circuitbreaker.DBCircuitBreaker satisfy it, so callers
// can wrap the connection with circuit breaker protection.
type Executor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// LeadRepo implements repository.LeadRepository on top of database/sql
// with the pgx stdlib driver. The primary-key constraint on id supplies
// the check-then-act atomicity the contract requires, so no process-level
// locking is needed here.
type LeadRepo struct {
	db Executor
}

// NewLeadRepo creates a new PostgreSQL-backed lead repository.
func NewLeadRepo(db Executor) repository.LeadRepository {
	return &LeadRepo{db: db}
}

func (repo *LeadRepo) Contains(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`
	var existsFlag bool
	if err := repo.db.QueryRowContext(ctx, query, id).Scan(&existsFlag); err != nil {
		return false, fmt.Errorf("Contains: %w", err)
	}
	return existsFlag, nil
}

func (repo *LeadRepo) ContainsFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM leads WHERE fingerprint = $1)`
	var existsFlag bool
	if err := repo.db.QueryRowContext(ctx, query, fingerprint).Scan(&existsFlag); err != nil {
		return false, fmt.Errorf("ContainsFingerprint: %w", err)
	}
	return existsFlag, nil
}

// Append inserts the lead, relying on ON CONFLICT DO NOTHING plus the
// affected-row count to detect a concurrently committed duplicate.
func (repo *LeadRepo) Append(ctx context.Context, lead *entity.Lead) error {
	if err := lead.Validate(); err != nil {
		return fmt.Errorf("Append: %w", err)
	}

	const query = `
INSERT INTO leads (id, fingerprint, observed_at, title, body_excerpt, budget,
	room_config, localities, transaction_type, source_link)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO NOTHING`

	res, err := repo.db.ExecContext(ctx, query,
		lead.ID, lead.Fingerprint, lead.ObservedAt.UTC(), lead.Title,
		lead.BodyExcerpt, lead.Budget, lead.RoomConfig,
		strings.Join(lead.Localities, ", "), string(lead.TransactionType),
		lead.SourceLink)
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Append: RowsAffected: %w", err)
	}
	if affected == 0 {
		return entity.ErrDuplicateLead
	}
	return nil
}

func (repo *LeadRepo) List(ctx context.Context) ([]*entity.Lead, error) {
	const query = `
SELECT id, fingerprint, observed_at, title, body_excerpt, budget,
	room_config, localities, transaction_type, source_link
FROM leads
ORDER BY observed_at ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	leads := make([]*entity.Lead, 0, 100)
	for rows.Next() {
		var lead entity.Lead
		var localities, transactionType string
		if err := rows.Scan(&lead.ID, &lead.Fingerprint, &lead.ObservedAt,
			&lead.Title, &lead.BodyExcerpt, &lead.Budget, &lead.RoomConfig,
			&localities, &transactionType, &lead.SourceLink); err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		if localities != "" {
			lead.Localities = strings.Split(localities, ", ")
		}
		lead.TransactionType = entity.TransactionType(transactionType)
		leads = append(leads, &lead)
	}
	return leads, rows.Err()
}

func (repo *LeadRepo) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM leads`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

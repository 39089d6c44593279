package db

import (
	"database/sql"
)

// MigrateUp creates the append-only leads ledger schema. The table is only
// ever inserted into; there are no update or delete paths.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS leads (
    id               TEXT PRIMARY KEY,
    fingerprint      TEXT NOT NULL,
    observed_at      TIMESTAMPTZ NOT NULL,
    title            TEXT NOT NULL,
    body_excerpt     TEXT NOT NULL,
    budget           TEXT NOT NULL DEFAULT '',
    room_config      TEXT NOT NULL DEFAULT '',
    localities       TEXT NOT NULL DEFAULT '',
    transaction_type TEXT NOT NULL,
    source_link      TEXT NOT NULL
)`); err != nil {
		return err
	}

	// Secondary dedup key: cross-source duplicates carry different ids but
	// the same content fingerprint.
	if _, err := db.Exec(`
CREATE INDEX IF NOT EXISTS leads_fingerprint_idx ON leads (fingerprint)`); err != nil {
		return err
	}

	return nil
}

// MigrateDown rolls back the ledger schema.
// Use with caution: this deletes the dedup history, so every previously
// seen post becomes a new lead on the next cycle.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS leads_fingerprint_idx`,
		`DROP TABLE IF EXISTS leads`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

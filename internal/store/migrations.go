package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema contains the DDL for the run archive.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		policy     TEXT NOT NULL,
		source     TEXT NOT NULL DEFAULT '',
		total_time INTEGER NOT NULL,
		completed  INTEGER NOT NULL,
		metrics    TEXT NOT NULL,
		report     TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_policy ON runs(policy)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

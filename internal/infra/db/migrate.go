package db

import (
	"context"
	"database/sql"
	"fmt"
)

// MigrateUp creates the parse_logs table and its indexes. It is safe to run repeatedly.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS parse_logs (
    id           BIGSERIAL PRIMARY KEY,
    url          TEXT NOT NULL,
    source       VARCHAR(20) NOT NULL,
    version      VARCHAR(40) NOT NULL DEFAULT '',
    item_count   INTEGER NOT NULL DEFAULT 0,
    duration_ms  BIGINT NOT NULL DEFAULT 0,
    error        TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return fmt.Errorf("create parse_logs: %w", err)
	}

	indexes := []string{
		// ORDER BY created_at DESC for the history listing
		`CREATE INDEX IF NOT EXISTS idx_parse_logs_created_at ON parse_logs(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_parse_logs_url ON parse_logs(url)`,
	}
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

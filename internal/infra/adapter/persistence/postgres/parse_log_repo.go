package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parserapi/internal/domain/entity"
	"parserapi/internal/observability/metrics"
	"parserapi/internal/repository"
	"parserapi/internal/resilience/circuitbreaker"
)

type ParseLogRepo struct{ db *circuitbreaker.DBCircuitBreaker }

func NewParseLogRepo(db *circuitbreaker.DBCircuitBreaker) repository.ParseLogRepository {
	return &ParseLogRepo{db: db}
}

func (repo *ParseLogRepo) Create(ctx context.Context, log *entity.ParseLog) error {
	const query = `
INSERT INTO parse_logs (url, source, version, item_count, duration_ms, error)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at`
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert_parse_log", time.Since(start)) }()

	rows, err := repo.db.QueryContext(ctx, query,
		log.URL, string(log.Source), log.Version, log.ItemCount, log.DurationMS, log.Error)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("Create: %w", err)
		}
		return errors.New("Create: no row returned")
	}
	if err := rows.Scan(&log.ID, &log.CreatedAt); err != nil {
		return fmt.Errorf("Create: scan: %w", err)
	}
	return rows.Err()
}

func (repo *ParseLogRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ParseLog, error) {
	const query = `
SELECT id, url, source, version, item_count, duration_ms, error, created_at
FROM parse_logs
ORDER BY created_at DESC, id DESC
LIMIT $1`
	start := time.Now()
	defer func() { metrics.RecordDBQuery("list_parse_logs", time.Since(start)) }()

	rows, err := repo.db.QueryContext(ctx, query, repository.ClampHistoryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("ListRecent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	logs := make([]*entity.ParseLog, 0)
	for rows.Next() {
		var l entity.ParseLog
		var source string
		if err := rows.Scan(&l.ID, &l.URL, &source, &l.Version, &l.ItemCount,
			&l.DurationMS, &l.Error, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListRecent: scan: %w", err)
		}
		l.Source = entity.Source(source)
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRecent: %w", err)
	}
	return logs, nil
}

func (repo *ParseLogRepo) Ping(ctx context.Context) error {
	return repo.db.PingContext(ctx)
}

package repository

import (
	"context"

	"parserapi/internal/domain/entity"
)

const (
	// DefaultHistoryLimit is the number of rows listed when the caller gives none.
	DefaultHistoryLimit = 20
	// MaxHistoryLimit caps a single history listing.
	MaxHistoryLimit = 100
)

// ParseLogRepository persists parse history.
type ParseLogRepository interface {
	// Create inserts log and fills its ID and CreatedAt.
	Create(ctx context.Context, log *entity.ParseLog) error
	// ListRecent returns up to limit rows, newest first.
	ListRecent(ctx context.Context, limit int) ([]*entity.ParseLog, error)
	Ping(ctx context.Context) error
}

// ClampHistoryLimit maps a requested limit onto 1..MaxHistoryLimit, using the default for non-positive values.
func ClampHistoryLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

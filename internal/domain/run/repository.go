package run

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, r *Run) error
	Save(ctx context.Context, r *Run) error
	// GetByRunID returns ErrNotFound when no run carries the public id.
	GetByRunID(ctx context.Context, runID string) (*Run, error)
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}

// Locker guards the single-writer invariant of the loan master output.
type Locker interface {
	TryLock(ctx context.Context, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context) error
}

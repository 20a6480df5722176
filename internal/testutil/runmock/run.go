package runmock

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "loan-master/internal/domain/run"
)

// Repo is an in-memory domain.Repository. The Fn hooks override the
// default behaviour when set.
type Repo struct {
	CreateFn     func(ctx context.Context, r *domain.Run) error
	SaveFn       func(ctx context.Context, r *domain.Run) error
	GetByRunIDFn func(ctx context.Context, runID string) (*domain.Run, error)

	mu     sync.Mutex
	nextID uint64
	runs   map[string]domain.Run
	saves  []domain.Run
}

func (m *Repo) Create(ctx context.Context, r *domain.Run) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runs == nil {
		m.runs = map[string]domain.Run{}
	}
	m.nextID++
	r.ID = m.nextID
	m.runs[r.RunID] = *r
	return nil
}

func (m *Repo) Save(ctx context.Context, r *domain.Run) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runs == nil {
		m.runs = map[string]domain.Run{}
	}
	m.runs[r.RunID] = *r
	m.saves = append(m.saves, *r)
	return nil
}

func (m *Repo) GetByRunID(ctx context.Context, runID string) (*domain.Run, error) {
	if m.GetByRunIDFn != nil {
		return m.GetByRunIDFn(ctx, runID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[runID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (m *Repo) ListRecent(ctx context.Context, limit int) ([]domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Saves returns a copy of every run passed to Save, in order.
func (m *Repo) Saves() []domain.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Run(nil), m.saves...)
}

// Locker is a process-local domain.Locker.
type Locker struct {
	TryLockFn func(ctx context.Context, ttl time.Duration) (bool, error)

	mu       sync.Mutex
	held     bool
	unlocked int
}

func (l *Locker) TryLock(ctx context.Context, ttl time.Duration) (bool, error) {
	if l.TryLockFn != nil {
		return l.TryLockFn(ctx, ttl)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *Locker) Unlock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.unlocked++
	return nil
}

// Held reports whether the lock is taken and how many times it was released.
func (l *Locker) Held() (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held, l.unlocked
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job runs one scheduled tick. The context is cancelled on Stop.
type Job func(ctx context.Context) error

// Scheduler triggers a single job on a standard five-field cron spec.
// Overlapping ticks are skipped while the previous one is still running.
type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	started bool
}

func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	cl := cronLogger{log: log.Named("cron")}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under spec. An empty spec is rejected.
func (s *Scheduler) Add(name, spec string, job Job) (cron.EntryID, error) {
	if spec == "" {
		return 0, errors.New("empty schedule")
	}
	id, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := job(s.ctx); err != nil {
			s.log.Error("scheduled job failed", zap.String("job", name), zap.Error(err),
				zap.Duration("took", time.Since(start)))
			return
		}
		s.log.Info("scheduled job done", zap.String("job", name), zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return 0, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return id, nil
}

// Next reports the next activation of an entry, zero if unknown.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop cancels running jobs and waits for them until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type cronLogger struct{ log *zap.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.log.Sugar().Debugw(msg, kv...)
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.log.Sugar().Errorw(msg, append(kv, "error", err)...)
}

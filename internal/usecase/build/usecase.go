package build

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"loan-master/internal/domain/dataset"
	lm "loan-master/internal/domain/loanmaster"
	"loan-master/internal/domain/run"
	"loan-master/internal/infrastructure/metrics"
	"loan-master/internal/usecase/features"
	"loan-master/internal/usecase/quality"
	"loan-master/pkg/id"
)

// Deps wires a Usecase. Runs, Lock and Metrics are optional: without Runs
// nothing is recorded, without Lock runs are not serialised.
type Deps struct {
	Source  lm.SourceReader
	Writer  lm.Writer
	Runs    run.Repository
	Lock    run.Locker
	Metrics *metrics.Pipeline
	Log     *zap.Logger
	Now     func() time.Time
	LockTTL time.Duration
}

type Usecase struct{ d Deps }

func NewUsecase(d Deps) *Usecase {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.LockTTL <= 0 {
		d.LockTTL = 15 * time.Minute
	}
	return &Usecase{d: d}
}

// Run performs one full recomputation of the loan master and replaces the
// output in a single step. A failed run leaves the previous output intact.
func (u *Usecase) Run(ctx context.Context, in RunInput) (*RunDTO, error) {
	if in.Trigger == "" {
		in.Trigger = run.TriggerCLI
	}
	in, mode := u.resolve(in)

	if u.d.Lock != nil {
		ok, err := u.d.Lock.TryLock(ctx, u.d.LockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrRunInProgress
		}
		defer func() {
			if err := u.d.Lock.Unlock(context.WithoutCancel(ctx)); err != nil {
				u.d.Log.Warn("run lock release failed", zap.Error(err))
			}
		}()
	}

	rec := &run.Run{
		RunID:       id.NewRunID(),
		Trigger:     in.Trigger,
		AsOf:        in.AsOf,
		StrictDates: in.StrictDates,
		Status:      run.StatusRunning,
		StartedAt:   u.d.Now().UTC(),
		Destination: u.d.Writer.Destination(),
	}
	if u.d.Runs != nil {
		if err := u.d.Runs.Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}
	log := u.d.Log.With(zap.String("run_id", rec.RunID))
	log.Info("loan master run started",
		zap.String("trigger", string(in.Trigger)),
		zap.Time("as_of", in.AsOf),
		zap.String("date_mode", string(mode)))

	dto, err := u.execute(ctx, log, rec, mode)
	if err != nil {
		var status run.Status
		switch {
		case errors.Is(err, ErrLoad):
			status = run.StatusLoadFailed
		case errors.Is(err, ErrPersist):
			status = run.StatusPersistFailed
		default:
			status = run.StatusComputeFailed
		}
		u.finish(ctx, log, rec, status, err)
		log.Error("loan master run failed", zap.String("status", string(status)), zap.Error(err))
		out := toDTO(rec)
		if dto != nil {
			out.Quality, out.Stages, out.Issues = dto.Quality, dto.Stages, dto.Issues
		}
		return out, err
	}
	u.finish(ctx, log, rec, run.StatusSucceeded, nil)
	if u.d.Metrics != nil {
		u.d.Metrics.ObserveSuccess(rec.OutputRows, *rec.FinishedAt)
	}
	log.Info("loan master run succeeded",
		zap.Int("rows", rec.OutputRows),
		zap.Int("issues", rec.IssueCount),
		zap.String("destination", rec.Destination))

	full := toDTO(rec)
	full.Quality, full.Stages, full.Issues = dto.Quality, dto.Stages, dto.Issues
	return full, nil
}

func (u *Usecase) execute(ctx context.Context, log *zap.Logger, rec *run.Run, mode features.DateMode) (*RunDTO, error) {
	src, err := u.load(ctx, log)
	if err != nil {
		return nil, err
	}
	rec.LoanRows = src.Loans.Len()

	out := &RunDTO{}
	rep := quality.Build(src.Named())
	out.Quality = &rep
	for _, d := range rep.Datasets {
		log.Info("data quality",
			zap.String("dataset", d.Name),
			zap.Int("rows", d.Rows),
			zap.Int("columns", d.Columns),
			zap.Int("missing_cells", d.TotalMissing()),
			zap.Any("missing_by_column", d.Missing),
			zap.Int("duplicate_rows", d.Duplicates))
	}

	res, err := compute(ctx, src, rec.AsOf, mode)
	if res != nil {
		out.Stages = res.Stages
		for _, st := range res.Stages {
			log.Debug("stage done", zap.String("stage", st.Name), zap.Int("rows", st.Rows), zap.Duration("took", st.Duration))
			if u.d.Metrics != nil {
				u.d.Metrics.ObserveStage(st.Name, st.Duration)
			}
		}
	}
	if err != nil {
		return out, err
	}

	out.Issues = map[string]int{}
	for kind, n := range res.IssueCounts() {
		out.Issues[string(kind)] = n
		if u.d.Metrics != nil {
			u.d.Metrics.AddIssues(string(kind), n)
		}
	}
	for _, is := range res.Issues {
		log.Debug("data issue",
			zap.String("kind", string(is.Kind)),
			zap.String("dataset", is.Dataset),
			zap.String("column", is.Column),
			zap.Int("row", is.Row),
			zap.String("key", is.Key),
			zap.String("value", is.Value))
	}
	rec.IssueCount = len(res.Issues)
	rec.OutputRows = res.Table.Len()
	log.Info("loan master computed",
		zap.Int("rows", res.Table.Len()),
		zap.Int("columns", len(res.Table.Columns())),
		zap.Any("issues", out.Issues))

	if err := u.d.Writer.Write(ctx, res.Table); err != nil {
		return out, fmt.Errorf("%w: write %s: %w", ErrPersist, u.d.Writer.Destination(), err)
	}
	return out, nil
}

// load reads every required dataset plus the optional branches dataset.
func (u *Usecase) load(ctx context.Context, log *zap.Logger) (lm.Sources, error) {
	var src lm.Sources
	for _, name := range append(append([]string(nil), lm.Required...), lm.Branches) {
		t, err := u.d.Source.Load(ctx, name)
		if name == lm.Branches && errors.Is(err, lm.ErrSourceNotFound) {
			log.Info("optional dataset not present", zap.String("dataset", name))
			continue
		}
		if err != nil {
			return src, fmt.Errorf("%w: %s: %w", ErrLoad, name, err)
		}
		if err := src.Set(name, t); err != nil {
			return src, fmt.Errorf("%w: %w", ErrLoad, err)
		}
		log.Info("dataset loaded", zap.String("dataset", name), zap.Int("rows", t.Len()), zap.Int("columns", len(t.Columns())))
	}
	return src, nil
}

func (u *Usecase) finish(ctx context.Context, log *zap.Logger, rec *run.Run, status run.Status, cause error) {
	now := u.d.Now().UTC()
	rec.Status = status
	rec.FinishedAt = &now
	if cause != nil {
		rec.Error = cause.Error()
	}
	if u.d.Metrics != nil {
		u.d.Metrics.ObserveRun(string(status), now.Sub(rec.StartedAt))
	}
	if u.d.Runs == nil {
		return
	}
	// record the outcome even when the caller's context is gone
	if err := u.d.Runs.Save(context.WithoutCancel(ctx), rec); err != nil {
		log.Error("saving run record failed", zap.Error(err))
	}
}

func (u *Usecase) Get(ctx context.Context, runID string) (*RunDTO, error) {
	if u.d.Runs == nil {
		return nil, run.ErrNotFound
	}
	r, err := u.d.Runs.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	return toDTO(r), nil
}

func (u *Usecase) List(ctx context.Context, limit int) ([]RunDTO, error) {
	if u.d.Runs == nil {
		return []RunDTO{}, nil
	}
	rs, err := u.d.Runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RunDTO, 0, len(rs))
	for i := range rs {
		out = append(out, *toDTO(&rs[i]))
	}
	return out, nil
}

// Output is a convenience for callers that need the computed table itself
// without persisting it.
func (u *Usecase) Output(ctx context.Context, in RunInput) (*dataset.Table, error) {
	in, mode := u.resolve(in)
	src, err := u.load(ctx, u.d.Log)
	if err != nil {
		return nil, err
	}
	res, err := compute(ctx, src, in.AsOf, mode)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

// resolve applies the clock default to AsOf and picks the date mode.
func (u *Usecase) resolve(in RunInput) (RunInput, features.DateMode) {
	if in.AsOf.IsZero() {
		in.AsOf = u.d.Now().UTC()
	}
	if in.StrictDates {
		return in, features.DateModeStrict
	}
	return in, features.DateModeCoerce
}

// compute runs the feature pipeline. The result may be partial on error.
func compute(ctx context.Context, src lm.Sources, asOf time.Time, mode features.DateMode) (*features.Result, error) {
	p, err := features.NewPipeline(features.Options{AsOf: asOf, DateMode: mode})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompute, err)
	}
	res, err := p.Run(ctx, src)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrCompute, err)
	}
	return res, nil
}

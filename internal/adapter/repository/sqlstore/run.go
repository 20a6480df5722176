package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"loan-master/internal/domain/run"
)

type RunRepository struct{ db *gorm.DB }

func NewRunRepository(db *gorm.DB) *RunRepository { return &RunRepository{db: db} }

// Migrate creates or updates the pipeline_runs table.
func (r *RunRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&run.Run{})
}

func (r *RunRepository) Create(ctx context.Context, rn *run.Run) error {
	return r.db.WithContext(ctx).Create(rn).Error
}

func (r *RunRepository) Save(ctx context.Context, rn *run.Run) error {
	return r.db.WithContext(ctx).Save(rn).Error
}

func (r *RunRepository) GetByRunID(ctx context.Context, runID string) (*run.Run, error) {
	var out run.Run
	res := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&out)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, run.ErrNotFound
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &out, nil
}

func (r *RunRepository) ListRecent(ctx context.Context, limit int) ([]run.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []run.Run
	res := r.db.WithContext(ctx).Order("started_at DESC, id DESC").Limit(limit).Find(&out)
	return out, res.Error
}

package run

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("run not found")
	ErrInProgress = errors.New("a loan master run is already in progress")
)

type Status string

const (
	StatusRunning       Status = "running"
	StatusSucceeded     Status = "succeeded"
	StatusLoadFailed    Status = "load_failed"
	StatusComputeFailed Status = "compute_failed"
	StatusPersistFailed Status = "persist_failed"
)

type Trigger string

const (
	TriggerCLI      Trigger = "cli"
	TriggerAPI      Trigger = "api"
	TriggerSchedule Trigger = "schedule"
)

// Table: pipeline_runs
type Run struct {
	ID          uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunID       string     `gorm:"column:run_id;size:32;not null;uniqueIndex:ux_pipeline_runs_run_id"`
	Trigger     Trigger    `gorm:"column:trigger;size:16;not null"`
	AsOf        time.Time  `gorm:"column:as_of;not null"`
	StrictDates bool       `gorm:"column:strict_dates;not null"`
	Status      Status     `gorm:"column:status;size:16;not null;index"`
	LoanRows    int        `gorm:"column:loan_rows"`
	OutputRows  int        `gorm:"column:output_rows"`
	IssueCount  int        `gorm:"column:issue_count"`
	Destination string     `gorm:"column:destination;type:text"`
	Error       string     `gorm:"column:error;type:text"`
	StartedAt   time.Time  `gorm:"column:started_at;not null"`
	FinishedAt  *time.Time `gorm:"column:finished_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Run) TableName() string { return "pipeline_runs" }

func (s Status) Terminal() bool { return s != StatusRunning }

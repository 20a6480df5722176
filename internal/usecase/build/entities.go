package build

import (
	"errors"
	"time"

	"loan-master/internal/domain/run"
	"loan-master/internal/usecase/features"
	"loan-master/internal/usecase/quality"
)

// Run failure classes. Callers branch on them with errors.Is; the
// underlying cause stays wrapped alongside.
var (
	ErrLoad          = errors.New("load failed")
	ErrCompute       = errors.New("computation failed")
	ErrPersist       = errors.New("persistence failed")
	ErrRunInProgress = run.ErrInProgress
)

type RunInput struct {
	// AsOf defaults to the clock when zero.
	AsOf        time.Time
	StrictDates bool
	Trigger     run.Trigger
}

type RunDTO struct {
	RunID       string     `json:"run_id"`
	Trigger     string     `json:"trigger"`
	Status      string     `json:"status"`
	AsOf        time.Time  `json:"as_of"`
	StrictDates bool       `json:"strict_dates"`
	LoanRows    int        `json:"loan_rows"`
	OutputRows  int        `json:"output_rows"`
	IssueCount  int        `json:"issue_count"`
	Destination string     `json:"destination,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`

	// Only present on the response of the run that produced them.
	Quality *quality.Report      `json:"quality,omitempty"`
	Stages  []features.StageStat `json:"stages,omitempty"`
	Issues  map[string]int       `json:"issues,omitempty"`
}

func toDTO(r *run.Run) *RunDTO {
	return &RunDTO{
		RunID:       r.RunID,
		Trigger:     string(r.Trigger),
		Status:      string(r.Status),
		AsOf:        r.AsOf,
		StrictDates: r.StrictDates,
		LoanRows:    r.LoanRows,
		OutputRows:  r.OutputRows,
		IssueCount:  r.IssueCount,
		Destination: r.Destination,
		Error:       r.Error,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}

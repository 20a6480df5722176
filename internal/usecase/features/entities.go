package features

import (
	"errors"
	"fmt"
	"time"

	"loan-master/internal/domain/dataset"
)

var (
	ErrUnparsableDate = errors.New("unparsable date")
	ErrNoAsOf         = errors.New("as-of timestamp is required")
	ErrMissingSource  = errors.New("required source dataset is nil")
)

// DateMode selects what happens to a date cell that cannot be parsed.
type DateMode string

const (
	DateModeCoerce DateMode = "coerce" // becomes absent and is reported as an issue
	DateModeStrict DateMode = "strict" // fails the run
)

type Options struct {
	// AsOf is the reference point for Loan_Age_Months.
	AsOf     time.Time
	DateMode DateMode
}

const (
	StageDateNormalizer    = "date_normalizer"
	StageDefaultEnricher   = "default_enricher"
	StageAssembler         = "loan_master_assembler"
	StageRecoveryMetric    = "recovery_metric"
	StageApplicationJoiner = "approved_application_joiner"
	StageCustomerJoiner    = "customer_feature_joiner"
	StageAgeFeature        = "age_feature"
)

// StageError names the pipeline stage an input contract violation surfaced in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

type IssueKind string

const (
	IssueUnparsableDate         IssueKind = "unparsable_date"
	IssueNegativeProcessingTime IssueKind = "negative_processing_time"
)

// Issue is a data-quality finding that did not stop the run.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Dataset string    `json:"dataset"`
	Column  string    `json:"column"`
	Row     int       `json:"row"`
	Key     string    `json:"key,omitempty"`
	Value   string    `json:"value"`
}

type StageStat struct {
	Name     string        `json:"name"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration_ns"`
}

type Result struct {
	Table  *dataset.Table
	Issues []Issue
	Stages []StageStat
}

// IssueCounts groups issues by kind.
func (r *Result) IssueCounts() map[IssueKind]int {
	out := map[IssueKind]int{}
	for _, is := range r.Issues {
		out[is.Kind]++
	}
	return out
}

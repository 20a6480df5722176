package features

import (
	"context"
	"fmt"
	"time"

	"loan-master/internal/domain/dataset"
	lm "loan-master/internal/domain/loanmaster"
)

// Pipeline turns one set of raw sources into the loan master table. It holds
// no state between runs.
type Pipeline struct{ opts Options }

func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.AsOf.IsZero() {
		return nil, ErrNoAsOf
	}
	switch opts.DateMode {
	case "":
		opts.DateMode = DateModeCoerce
	case DateModeCoerce, DateModeStrict:
	default:
		return nil, fmt.Errorf("unknown date mode %q", opts.DateMode)
	}
	return &Pipeline{opts: opts}, nil
}

func (p *Pipeline) Options() Options { return p.opts }

// Run executes the stages in order. Sources are not modified.
func (p *Pipeline) Run(ctx context.Context, src lm.Sources) (*Result, error) {
	named := src.Named()
	for _, name := range lm.Required {
		if named[name] == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingSource, name)
		}
	}

	res := &Result{}
	var (
		table *dataset.Table
		err   error
	)
	stage := func(name string, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		if err := fn(); err != nil {
			return &StageError{Stage: name, Err: err}
		}
		rows := 0
		if table != nil {
			rows = table.Len()
		}
		res.Stages = append(res.Stages, StageStat{Name: name, Rows: rows, Duration: time.Since(start)})
		return nil
	}

	var loans, applications, defaults *dataset.Table
	err = stage(StageDateNormalizer, func() error {
		normalized := map[string]*dataset.Table{}
		for _, name := range []string{lm.Loans, lm.Applications, lm.Transactions, lm.Defaults} {
			out, issues, err := NormalizeDates(named[name], lm.DateColumns[name], p.opts.DateMode)
			if err != nil {
				return err
			}
			res.Issues = append(res.Issues, issues...)
			normalized[name] = out
		}
		loans, applications, defaults = normalized[lm.Loans], normalized[lm.Applications], normalized[lm.Defaults]
		return nil
	})
	if err != nil {
		return nil, err
	}

	var enriched *dataset.Table
	if err = stage(StageDefaultEnricher, func() error {
		enriched, err = EnrichDefaults(defaults)
		return err
	}); err != nil {
		return nil, err
	}

	if err = stage(StageAssembler, func() error {
		table, err = AssembleLoanMaster(loans, enriched)
		return err
	}); err != nil {
		return nil, err
	}

	if err = stage(StageRecoveryMetric, func() error {
		table, err = AddRecoveryRate(table)
		return err
	}); err != nil {
		return nil, err
	}

	if err = stage(StageApplicationJoiner, func() error {
		var issues []Issue
		table, issues, err = JoinApprovedApplications(table, applications)
		res.Issues = append(res.Issues, issues...)
		return err
	}); err != nil {
		return nil, err
	}

	if err = stage(StageCustomerJoiner, func() error {
		table, err = JoinCustomerFeatures(table, src.Customers)
		return err
	}); err != nil {
		return nil, err
	}

	if err = stage(StageAgeFeature, func() error {
		table, err = AddLoanAge(table, p.opts.AsOf)
		return err
	}); err != nil {
		return nil, err
	}

	if table.Len() != src.Loans.Len() {
		return nil, fmt.Errorf("%w: loans %d, loan master %d", dataset.ErrCardinality, src.Loans.Len(), table.Len())
	}
	table.Name = "loan_master"
	res.Table = table
	return res, nil
}

package features

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-master/internal/domain/dataset"
	lm "loan-master/internal/domain/loanmaster"
)

func runFixture(t *testing.T, mode DateMode) (*Result, error) {
	t.Helper()
	p, err := NewPipeline(Options{AsOf: asOf, DateMode: mode})
	require.NoError(t, err)
	return p.Run(context.Background(), fixtureSources(t))
}

func TestNewPipeline_RequiresAsOf(t *testing.T) {
	_, err := NewPipeline(Options{})
	assert.ErrorIs(t, err, ErrNoAsOf)

	_, err = NewPipeline(Options{AsOf: asOf, DateMode: "lenient"})
	assert.Error(t, err)

	p, err := NewPipeline(Options{AsOf: asOf})
	require.NoError(t, err)
	assert.Equal(t, DateModeCoerce, p.Options().DateMode)
}

func TestRun_OutputShape(t *testing.T) {
	res, err := runFixture(t, DateModeCoerce)
	require.NoError(t, err)

	tb := res.Table
	assert.Equal(t, 4, tb.Len(), "one row per loan")
	assert.Equal(t, []string{
		lm.LoanID, lm.CustomerID, "Principal", lm.EMIAmount, lm.DisbursalDate, lm.RepaymentStartDate, lm.RepaymentEndDate,
		lm.DefaultFlag, lm.DefaultAmount, lm.RecoveryAmount, lm.RecoveryStatus, lm.LegalAction, lm.DefaultDate,
		lm.RecoveryRate,
		lm.ApplicationDate, lm.ApprovalDate, lm.LoanPurpose, lm.SourceChannel, lm.ProcessingFee,
		lm.ProcessingTimeDays,
		lm.AnnualIncome, lm.CreditScore, "City",
		lm.IncomeBand, lm.CreditScoreBand, lm.EMIToIncomeRatio,
		lm.LoanAgeMonths,
	}, tb.Columns())

	names := []string{}
	for _, st := range res.Stages {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{
		StageDateNormalizer, StageDefaultEnricher, StageAssembler, StageRecoveryMetric,
		StageApplicationJoiner, StageCustomerJoiner, StageAgeFeature,
	}, names)
}

func TestRun_ApprovedLoanWithMediumIncome(t *testing.T) {
	res, err := runFixture(t, DateModeCoerce)
	require.NoError(t, err)
	tb := res.Table
	r := rowOf(t, tb, "L1")

	ratio, ok := tb.Get(r, lm.EMIToIncomeRatio).Float()
	require.True(t, ok)
	assert.InDelta(t, 0.24, ratio, 1e-12)

	band, _ := tb.Get(r, lm.IncomeBand).Str()
	assert.Equal(t, "Medium", band)
	score, _ := tb.Get(r, lm.CreditScoreBand).Str()
	assert.Equal(t, "Average", score)

	days, ok := tb.Get(r, lm.ProcessingTimeDays).Int()
	require.True(t, ok)
	assert.EqualValues(t, 10, days)

	purpose, _ := tb.Get(r, lm.LoanPurpose).Str()
	assert.Equal(t, "Home", purpose)

	age, ok := tb.Get(r, lm.LoanAgeMonths).Float()
	require.True(t, ok)
	assert.Equal(t, 12.2, age) // 365 days / 30
}

func TestRun_NoDefaultMeansFlagZeroAndAbsentRate(t *testing.T) {
	res, err := runFixture(t, DateModeCoerce)
	require.NoError(t, err)
	tb := res.Table

	for _, id := range []string{"L1", "L2"} {
		r := rowOf(t, tb, id)
		flag, ok := tb.Get(r, lm.DefaultFlag).Int()
		require.True(t, ok)
		assert.EqualValues(t, 0, flag, id)
		assert.True(t, tb.Get(r, lm.RecoveryRate).IsAbsent(), id)
		assert.True(t, tb.Get(r, lm.DefaultAmount).IsAbsent(), id)
	}
}

func TestRun_ZeroDefaultAmountIsUndefinedRate(t *testing.T) {
	res, err := runFixture(t, DateModeCoerce)
	require.NoError(t, err)
	tb := res.Table

	r := rowOf(t, tb, "L3")
	flag, _ := tb.Get(r, lm.DefaultFlag).Int()
	assert.EqualValues(t, 1, flag)
	rate := tb.Get(r, lm.RecoveryRate)
	assert.True(t, rate.IsUndefined())
	assert.False(t, rate.IsAbsent())

	r = rowOf(t, tb, "L4")
	got, ok := tb.Get(r, lm.RecoveryRate).Float()
	require.True(t, ok)
	assert.Equal(t, 0.25, got)
}

func TestRun_DefaultFlagMatchesDefaultMembership(t *testing.T) {
	res, err := runFixture(t, DateModeCoerce)
	require.NoError(t, err)
	tb := res.Table
	defaulted := map[string]bool{"L3": true, "L4": true}

	for r := 0; r < tb.Len(); r++ {
		id, _ := tb.Get(r, lm.LoanID).Str()
		flag, ok := tb.Get(r, lm.DefaultFlag).Int()
		require.True(t, ok)
		assert.Contains(t, []int64{0, 1}, flag)
		assert.Equal(t, defaulted[id], flag == 1, id)
		if flag == 0 {
			assert.True(t, tb.Get(r, lm.RecoveryRate).IsAbsent())
		} else {
			assert.False(t, tb.Get(r, lm.RecoveryRate).IsAbsent())
		}
	}
}

func TestRun_UnapprovedApplicationsContributeNothing(t *testing.T) {
	res, err := runFixture(t, DateModeCoerce)
	require.NoError(t, err)
	tb := res.Table

	// L2 was rejected; L4's status is "approved" in lower case, which does not count.
	for _, id := range []string{"L2", "L4"} {
		r := rowOf(t, tb, id)
		for _, col := range []string{lm.ApplicationDate, lm.ApprovalDate, lm.LoanPurpose, lm.SourceChannel, lm.ProcessingFee, lm.ProcessingTimeDays} {
			assert.True(t, tb.Get(r, col).IsAbsent(), "%s %s", id, col)
		}
	}
}

func TestRun_NegativeProcessingTimeIsFlagged(t *testing.T) {
	res, err := runFixture(t, DateModeCoerce)
	require.NoError(t, err)

	r := rowOf(t, res.Table, "L3")
	days, ok := res.Table.Get(r, lm.ProcessingTimeDays).Int()
	require.True(t, ok)
	assert.EqualValues(t, -5, days)

	var found bool
	for _, is := range res.Issues {
		if is.Kind == IssueNegativeProcessingTime {
			found = true
			assert.Equal(t, "L3", is.Key)
			assert.Equal(t, "-5", is.Value)
		}
	}
	assert.True(t, found)
}

func TestRun_CustomerFeatures(t *testing.T) {
	res, err := runFixture(t, DateModeCoerce)
	require.NoError(t, err)
	tb := res.Table

	r := rowOf(t, tb, "L2") // zero income
	assert.True(t, tb.Get(r, lm.EMIToIncomeRatio).IsUndefined())
	band, _ := tb.Get(r, lm.IncomeBand).Str()
	assert.Equal(t, "Low", band)
	score, _ := tb.Get(r, lm.CreditScoreBand).Str()
	assert.Equal(t, "Good", score)

	r = rowOf(t, tb, "L3") // income exactly 300000, no score
	band, _ = tb.Get(r, lm.IncomeBand).Str()
	assert.Equal(t, "Low", band)
	assert.True(t, tb.Get(r, lm.CreditScoreBand).IsAbsent())
	ratio, ok := tb.Get(r, lm.EMIToIncomeRatio).Float()
	require.True(t, ok)
	assert.InDelta(t, 0.08, ratio, 1e-12)

	r = rowOf(t, tb, "L4") // customer missing
	for _, col := range []string{lm.AnnualIncome, lm.IncomeBand, lm.CreditScoreBand, lm.EMIToIncomeRatio, "City"} {
		assert.True(t, tb.Get(r, col).IsAbsent(), col)
	}
}

func TestRun_LoanAge(t *testing.T) {
	res, err := runFixture(t, DateModeCoerce)
	require.NoError(t, err)
	tb := res.Table

	cases := map[string]float64{
		"L2": 6.6,  // 199 days
		"L4": 12.2, // 366 days
	}
	for id, want := range cases {
		got, ok := tb.Get(rowOf(t, tb, id), lm.LoanAgeMonths).Float()
		require.True(t, ok, id)
		assert.Equal(t, want, got, id)
	}
	assert.True(t, tb.Get(rowOf(t, tb, "L3"), lm.LoanAgeMonths).IsAbsent())
}

func TestRun_CoercedDatesAreReported(t *testing.T) {
	res, err := runFixture(t, DateModeCoerce)
	require.NoError(t, err)

	counts := res.IssueCounts()
	assert.Equal(t, 2, counts[IssueUnparsableDate])
	assert.Equal(t, 1, counts[IssueNegativeProcessingTime])

	var datasets []string
	for _, is := range res.Issues {
		if is.Kind == IssueUnparsableDate {
			datasets = append(datasets, is.Dataset+"."+is.Column)
		}
	}
	assert.ElementsMatch(t, []string{"loans.Disbursal_Date", "transactions.Transaction_Date"}, datasets)
}

func TestRun_StrictModeRejectsUnparsableDates(t *testing.T) {
	_, err := runFixture(t, DateModeStrict)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnparsableDate)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageDateNormalizer, se.Stage)
}

func TestRun_Idempotent(t *testing.T) {
	a, err := runFixture(t, DateModeCoerce)
	require.NoError(t, err)
	b, err := runFixture(t, DateModeCoerce)
	require.NoError(t, err)

	require.Equal(t, a.Table.Columns(), b.Table.Columns())
	require.Equal(t, a.Table.Len(), b.Table.Len())
	for r := 0; r < a.Table.Len(); r++ {
		for c, v := range a.Table.Row(r) {
			assert.True(t, v.Equal(b.Table.Row(r)[c]), "row %d col %d", r, c)
		}
	}
}

func TestRun_DoesNotMutateSources(t *testing.T) {
	src := fixtureSources(t)
	p, err := NewPipeline(Options{AsOf: asOf})
	require.NoError(t, err)
	_, err = p.Run(context.Background(), src)
	require.NoError(t, err)

	raw, ok := src.Loans.Get(0, lm.DisbursalDate).Str()
	assert.True(t, ok)
	assert.Equal(t, "2024-01-01", raw)
	assert.False(t, src.Defaults.Has(lm.DefaultFlag))
}

func TestRun_ContractViolations(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(t *testing.T, src *lm.Sources)
		wantErr error
		stage   string
	}{
		{
			name: "duplicate default per loan",
			mutate: func(t *testing.T, src *lm.Sources) {
				require.NoError(t, src.Defaults.Append([]dataset.Value{s("L4"), s("2024-06-01"), i(1), i(1), s("None"), s("No")}))
			},
			wantErr: dataset.ErrDuplicateKey,
			stage:   StageAssembler,
		},
		{
			name: "two approved applications for one loan",
			mutate: func(t *testing.T, src *lm.Sources) {
				require.NoError(t, src.Applications.Append([]dataset.Value{s("A5"), s("L1"), s("2023-12-02"), s("2023-12-12"), s("Approved"), s("Home"), s("Branch"), i(500)}))
			},
			wantErr: dataset.ErrDuplicateKey,
			stage:   StageApplicationJoiner,
		},
		{
			name: "duplicate customer",
			mutate: func(t *testing.T, src *lm.Sources) {
				require.NoError(t, src.Customers.Append([]dataset.Value{s("C1"), i(1), i(1), s("X")}))
			},
			wantErr: dataset.ErrDuplicateKey,
			stage:   StageCustomerJoiner,
		},
		{
			name: "duplicate loan",
			mutate: func(t *testing.T, src *lm.Sources) {
				require.NoError(t, src.Loans.Append([]dataset.Value{s("L1"), s("C1"), i(1), i(1), nah, nah, nah}))
			},
			wantErr: dataset.ErrDuplicateKey,
			stage:   StageAssembler,
		},
		{
			name: "customers without credit score",
			mutate: func(t *testing.T, src *lm.Sources) {
				c, err := src.Customers.Select(lm.CustomerID, lm.AnnualIncome)
				require.NoError(t, err)
				src.Customers = c
			},
			wantErr: dataset.ErrMissingColumn,
			stage:   StageCustomerJoiner,
		},
		{
			name: "defaults without legal action",
			mutate: func(t *testing.T, src *lm.Sources) {
				d, err := src.Defaults.Select(lm.LoanID, lm.DefaultDate, lm.DefaultAmount, lm.RecoveryAmount, lm.RecoveryStatus)
				require.NoError(t, err)
				src.Defaults = d
			},
			wantErr: dataset.ErrMissingColumn,
			stage:   StageDefaultEnricher,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := fixtureSources(t)
			tc.mutate(t, &src)
			p, err := NewPipeline(Options{AsOf: asOf})
			require.NoError(t, err)

			_, err = p.Run(context.Background(), src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			var se *StageError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tc.stage, se.Stage)
		})
	}
}

func TestRun_MissingSource(t *testing.T) {
	src := fixtureSources(t)
	src.Transactions = nil
	p, err := NewPipeline(Options{AsOf: asOf})
	require.NoError(t, err)
	_, err = p.Run(context.Background(), src)
	assert.ErrorIs(t, err, ErrMissingSource)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, err := NewPipeline(Options{AsOf: asOf})
	require.NoError(t, err)
	_, err = p.Run(ctx, fixtureSources(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_AsOfChangesOnlyAge(t *testing.T) {
	p1, _ := NewPipeline(Options{AsOf: asOf})
	p2, _ := NewPipeline(Options{AsOf: asOf.Add(30 * 24 * time.Hour)})
	a, err := p1.Run(context.Background(), fixtureSources(t))
	require.NoError(t, err)
	b, err := p2.Run(context.Background(), fixtureSources(t))
	require.NoError(t, err)

	r := rowOf(t, a.Table, "L1")
	ageA, _ := a.Table.Get(r, lm.LoanAgeMonths).Float()
	ageB, _ := b.Table.Get(r, lm.LoanAgeMonths).Float()
	assert.Equal(t, 13.2, ageB)
	assert.Equal(t, 12.2, ageA)
}

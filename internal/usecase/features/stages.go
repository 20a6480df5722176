package features

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"loan-master/internal/domain/dataset"
	lm "loan-master/internal/domain/loanmaster"
)

// EnrichDefaults marks every default record as a realised default and
// projects the columns carried onto the loan master.
func EnrichDefaults(defaults *dataset.Table) (*dataset.Table, error) {
	if err := defaults.Require(lm.LoanID, lm.DefaultAmount, lm.RecoveryAmount, lm.RecoveryStatus, lm.LegalAction, lm.DefaultDate); err != nil {
		return nil, err
	}
	flagged := defaults.WithColumn(lm.DefaultFlag, func(int) dataset.Value { return dataset.Int(1) })
	return flagged.Select(lm.DefaultProjection...)
}

// AssembleLoanMaster left-joins the default projection onto the full loan set.
// Loans without a default get Default_Flag 0.
func AssembleLoanMaster(loans, defaults *dataset.Table) (*dataset.Table, error) {
	if err := loans.Require(lm.LoanID, lm.CustomerID, lm.EMIAmount, lm.DisbursalDate); err != nil {
		return nil, err
	}
	if err := dataset.AssertUnique(loans, lm.LoanID); err != nil {
		return nil, err
	}
	joined, err := dataset.LeftJoin(loans, defaults, lm.LoanID, lm.LoanID)
	if err != nil {
		return nil, err
	}
	if err := joined.Require(lm.DefaultFlag); err != nil {
		return nil, err
	}
	return joined.WithColumn(lm.DefaultFlag, func(i int) dataset.Value {
		if joined.Get(i, lm.DefaultFlag).IsAbsent() {
			return dataset.Int(0)
		}
		return dataset.Int(1)
	}), nil
}

// AddRecoveryRate derives Recovery_Amount / Default_Amount for defaulted loans
// only. Non-defaulted loans get an absent rate; a zero, absent or otherwise
// unusable denominator yields the undefined marker.
func AddRecoveryRate(t *dataset.Table) (*dataset.Table, error) {
	if err := t.Require(lm.DefaultFlag, lm.RecoveryAmount, lm.DefaultAmount); err != nil {
		return nil, err
	}
	return t.WithColumn(lm.RecoveryRate, func(i int) dataset.Value {
		if flag, _ := t.Get(i, lm.DefaultFlag).Int(); flag != 1 {
			return dataset.Absent
		}
		rec, ok1 := t.Get(i, lm.RecoveryAmount).Float()
		def, ok2 := t.Get(i, lm.DefaultAmount).Float()
		if !ok1 || !ok2 {
			return dataset.Undefined()
		}
		return ratio(rec, def)
	}), nil
}

// JoinApprovedApplications joins the approved applications onto the loan
// master and derives Processing_Time_Days. Negative durations are kept and
// reported as issues.
func JoinApprovedApplications(t, applications *dataset.Table) (*dataset.Table, []Issue, error) {
	if err := applications.Require(append([]string{lm.ApprovalStatus}, lm.ApplicationProjection...)...); err != nil {
		return nil, nil, err
	}
	approved := applications.Filter(func(i int) bool {
		s, ok := applications.Get(i, lm.ApprovalStatus).Str()
		return ok && s == lm.StatusApproved
	})
	projected, err := approved.Select(lm.ApplicationProjection...)
	if err != nil {
		return nil, nil, err
	}
	joined, err := dataset.LeftJoin(t, projected, lm.LoanID, lm.LoanID)
	if err != nil {
		return nil, nil, err
	}

	var issues []Issue
	out := joined.WithColumn(lm.ProcessingTimeDays, func(i int) dataset.Value {
		applied, ok1 := joined.Get(i, lm.ApplicationDate).Time()
		decided, ok2 := joined.Get(i, lm.ApprovalDate).Time()
		if !ok1 || !ok2 {
			return dataset.Absent
		}
		days := wholeDays(decided.Sub(applied))
		if days < 0 {
			key, _ := joined.Get(i, lm.LoanID).Key()
			issues = append(issues, Issue{
				Kind:    IssueNegativeProcessingTime,
				Dataset: lm.Applications,
				Column:  lm.ProcessingTimeDays,
				Row:     i,
				Key:     key,
				Value:   dataset.Int(days).Format(),
			})
		}
		return dataset.Int(days)
	})
	return out, issues, nil
}

// JoinCustomerFeatures joins customer attributes and derives the income band,
// the credit-score band and the annualised EMI-to-income ratio.
func JoinCustomerFeatures(t, customers *dataset.Table) (*dataset.Table, error) {
	if err := customers.Require(lm.CustomerID, lm.AnnualIncome, lm.CreditScore); err != nil {
		return nil, err
	}
	joined, err := dataset.LeftJoin(t, customers, lm.CustomerID, lm.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := joined.Require(lm.AnnualIncome, lm.CreditScore, lm.EMIAmount); err != nil {
		return nil, err
	}

	out := joined.WithColumn(lm.IncomeBand, band(joined, lm.AnnualIncome, lm.IncomeBands))
	out = out.WithColumn(lm.CreditScoreBand, band(joined, lm.CreditScore, lm.CreditScoreBands))
	out = out.WithColumn(lm.EMIToIncomeRatio, func(i int) dataset.Value {
		emi, ok1 := joined.Get(i, lm.EMIAmount).Float()
		income, ok2 := joined.Get(i, lm.AnnualIncome).Float()
		if !ok1 || !ok2 || math.IsNaN(emi) || math.IsNaN(income) {
			return dataset.Absent
		}
		return ratio(emi*12, income)
	})
	return out, nil
}

// AddLoanAge derives Loan_Age_Months as whole days since disbursal over 30,
// rounded to one decimal, measured against asOf.
func AddLoanAge(t *dataset.Table, asOf time.Time) (*dataset.Table, error) {
	if err := t.Require(lm.DisbursalDate); err != nil {
		return nil, err
	}
	return t.WithColumn(lm.LoanAgeMonths, func(i int) dataset.Value {
		disbursed, ok := t.Get(i, lm.DisbursalDate).Time()
		if !ok {
			return dataset.Absent
		}
		months := decimal.NewFromInt(wholeDays(asOf.Sub(disbursed))).
			Div(decimal.NewFromInt(30)).
			Round(1)
		f, _ := months.Float64()
		return dataset.Float(f)
	}), nil
}

func band(t *dataset.Table, col string, bands lm.Bands) func(int) dataset.Value {
	return func(i int) dataset.Value {
		x, ok := t.Get(i, col).Float()
		if !ok {
			return dataset.Absent
		}
		label, ok := bands.Assign(x)
		if !ok {
			return dataset.Absent
		}
		return dataset.String(label)
	}
}

// ratio divides, turning any non-finite result into the undefined marker.
func ratio(num, den float64) dataset.Value {
	if den == 0 {
		return dataset.Undefined()
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return dataset.Undefined()
	}
	return dataset.Float(r)
}

// wholeDays floors a duration to days, matching calendar-day arithmetic on
// midnight-aligned dates.
func wholeDays(d time.Duration) int64 {
	return int64(math.Floor(d.Hours() / 24))
}

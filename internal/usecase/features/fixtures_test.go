package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"loan-master/internal/domain/dataset"
	lm "loan-master/internal/domain/loanmaster"
)

var (
	s   = dataset.String
	i   = dataset.Int
	f   = dataset.Float
	nah = dataset.Absent
)

var asOf = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

func tbl(t *testing.T, name string, cols []string, rows ...[]dataset.Value) *dataset.Table {
	t.Helper()
	out, err := dataset.New(name, cols)
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, out.Append(r))
	}
	return out
}

// fixtureSources covers:
//
//	L1 approved, not defaulted, income 500000 (ratio 0.24, Medium)
//	L2 rejected application, zero income
//	L3 defaulted with zero default amount, negative processing time, bad disbursal date
//	L4 defaulted, customer missing
func fixtureSources(t *testing.T) lm.Sources {
	t.Helper()
	loans := tbl(t, lm.Loans,
		[]string{lm.LoanID, lm.CustomerID, "Principal", lm.EMIAmount, lm.DisbursalDate, lm.RepaymentStartDate, lm.RepaymentEndDate},
		[]dataset.Value{s("L1"), s("C1"), i(200000), i(10000), s("2024-01-01"), s("2024-02-01"), s("2026-01-01")},
		[]dataset.Value{s("L2"), s("C2"), i(100000), i(5000), s("2024-06-15"), s("2024-07-15"), s("2025-06-15")},
		[]dataset.Value{s("L3"), s("C3"), i(50000), i(2000), s("not-a-date"), nah, nah},
		[]dataset.Value{s("L4"), s("C9"), i(20000), i(1000), s("2023-12-31"), s("2024-01-31"), s("2024-12-31")},
	)
	applications := tbl(t, lm.Applications,
		[]string{"Application_ID", lm.LoanID, lm.ApplicationDate, lm.ApprovalDate, lm.ApprovalStatus, lm.LoanPurpose, lm.SourceChannel, lm.ProcessingFee},
		[]dataset.Value{s("A1"), s("L1"), s("2023-12-01"), s("2023-12-11"), s("Approved"), s("Home"), s("Branch"), i(500)},
		[]dataset.Value{s("A2"), s("L2"), s("2024-06-01"), s("2024-06-03"), s("Rejected"), s("Car"), s("Online"), i(100)},
		[]dataset.Value{s("A3"), s("L3"), s("2024-02-10"), s("2024-02-05"), s("Approved"), s("Education"), s("Agent"), i(50)},
		[]dataset.Value{s("A4"), s("L4"), s("2023-11-01"), nah, s("approved"), s("Business"), s("Online"), i(75)},
	)
	defaults := tbl(t, lm.Defaults,
		[]string{lm.LoanID, lm.DefaultDate, lm.DefaultAmount, lm.RecoveryAmount, lm.RecoveryStatus, lm.LegalAction},
		[]dataset.Value{s("L3"), s("2024-09-01"), i(0), i(500), s("Partial"), s("Yes")},
		[]dataset.Value{s("L4"), s("2024-05-01"), i(1000), i(250), s("Partial"), s("No")},
	)
	customers := tbl(t, lm.Customers,
		[]string{lm.CustomerID, lm.AnnualIncome, lm.CreditScore, "City"},
		[]dataset.Value{s("C1"), i(500000), i(650), s("Pune")},
		[]dataset.Value{s("C2"), i(0), i(800), s("Delhi")},
		[]dataset.Value{s("C3"), f(300000), nah, s("Jaipur")},
	)
	transactions := tbl(t, lm.Transactions,
		[]string{"Transaction_ID", lm.LoanID, lm.TransactionDate, "Amount"},
		[]dataset.Value{s("T1"), s("L1"), s("2024-02-01"), i(10000)},
		[]dataset.Value{s("T2"), s("L1"), s("31/31/2024"), i(10000)},
	)
	return lm.Sources{
		Customers:    customers,
		Loans:        loans,
		Applications: applications,
		Transactions: transactions,
		Defaults:     defaults,
	}
}

// rowOf returns the loan master row index for a loan id.
func rowOf(t *testing.T, tb *dataset.Table, loanID string) int {
	t.Helper()
	for r := 0; r < tb.Len(); r++ {
		if id, _ := tb.Get(r, lm.LoanID).Str(); id == loanID {
			return r
		}
	}
	t.Fatalf("loan %s not in table", loanID)
	return -1
}

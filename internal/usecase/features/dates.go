package features

import (
	"fmt"
	"strings"
	"time"

	"loan-master/internal/domain/dataset"
	"loan-master/internal/domain/loanmaster"
)

// Accepted date layouts, most specific first. Ambiguous slash dates are month-first.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// ParseDate parses s with the accepted layouts and returns the instant in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableDate, s)
}

// NormalizeDates converts each named column of t to date cells. Cells that
// already hold dates are kept; blank and absent cells become absent without
// an issue. Anything else that fails to parse is coerced to absent and
// reported, or fails the call in strict mode.
func NormalizeDates(t *dataset.Table, cols []string, mode DateMode) (*dataset.Table, []Issue, error) {
	if err := t.Require(cols...); err != nil {
		return nil, nil, err
	}
	var issues []Issue
	out := t
	for _, col := range cols {
		next, err := out.Map(col, func(row int, v dataset.Value) (dataset.Value, error) {
			switch {
			case v.IsAbsent(), v.IsUndefined():
				return dataset.Absent, nil
			case v.Kind() == dataset.KindDate:
				return v, nil
			}
			raw := v.Format()
			if strings.TrimSpace(raw) == "" {
				return dataset.Absent, nil
			}
			parsed, err := ParseDate(raw)
			if err == nil {
				return dataset.Date(parsed), nil
			}
			if mode == DateModeStrict {
				return dataset.Absent, fmt.Errorf("%s.%s row %d: %w", t.Name, col, row, err)
			}
			key, _ := out.Get(row, keyColumn(out)).Key()
			issues = append(issues, Issue{
				Kind:    IssueUnparsableDate,
				Dataset: t.Name,
				Column:  col,
				Row:     row,
				Key:     key,
				Value:   raw,
			})
			return dataset.Absent, nil
		})
		if err != nil {
			return nil, nil, err
		}
		out = next
	}
	return out, issues, nil
}

// keyColumn picks the column that best identifies a row in issue reports.
func keyColumn(t *dataset.Table) string {
	for _, c := range []string{loanmaster.LoanID, "Transaction_ID", "Application_ID", loanmaster.CustomerID, "Branch_ID"} {
		if t.Has(c) {
			return c
		}
	}
	return ""
}

package quality

import (
	"sort"
	"strings"

	"loan-master/internal/domain/dataset"
)

// DatasetReport describes one raw dataset as loaded.
type DatasetReport struct {
	Name       string         `json:"name"`
	Rows       int            `json:"rows"`
	Columns    int            `json:"columns"`
	Missing    map[string]int `json:"missing,omitempty"`
	Duplicates int            `json:"duplicates"`
}

// Report holds one DatasetReport per dataset, ordered by name.
type Report struct {
	Datasets []DatasetReport `json:"datasets"`
}

// Build profiles every dataset: shape, missing cells per column and fully
// duplicated rows (every occurrence after the first counts).
func Build(tables map[string]*dataset.Table) Report {
	names := make([]string, 0, len(tables))
	for n := range tables {
		names = append(names, n)
	}
	sort.Strings(names)

	var rep Report
	for _, n := range names {
		rep.Datasets = append(rep.Datasets, profile(n, tables[n]))
	}
	return rep
}

func profile(name string, t *dataset.Table) DatasetReport {
	cols := t.Columns()
	dr := DatasetReport{Name: name, Rows: t.Len(), Columns: len(cols)}

	seen := make(map[string]struct{}, t.Len())
	var sig strings.Builder
	for r := 0; r < t.Len(); r++ {
		sig.Reset()
		for c, v := range t.Row(r) {
			if v.IsAbsent() || v.IsUndefined() {
				if dr.Missing == nil {
					dr.Missing = map[string]int{}
				}
				dr.Missing[cols[c]]++
			}
			sig.WriteString(v.Kind().String())
			sig.WriteByte(':')
			sig.WriteString(v.Format())
			sig.WriteByte(0x1f)
		}
		if _, dup := seen[sig.String()]; dup {
			dr.Duplicates++
			continue
		}
		seen[sig.String()] = struct{}{}
	}
	return dr
}

// TotalMissing sums missing cells across every column.
func (d DatasetReport) TotalMissing() int {
	n := 0
	for _, c := range d.Missing {
		n += c
	}
	return n
}

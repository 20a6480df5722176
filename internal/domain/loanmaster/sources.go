package loanmaster

import (
	"context"
	"fmt"

	"loan-master/internal/domain/dataset"
)

// Sources is the set of raw datasets one run works on. Branches is optional
// and only feeds the data-quality report.
type Sources struct {
	Customers    *dataset.Table
	Loans        *dataset.Table
	Applications *dataset.Table
	Transactions *dataset.Table
	Defaults     *dataset.Table
	Branches     *dataset.Table
}

// Required lists the dataset names a run cannot proceed without, in load order.
var Required = []string{Customers, Loans, Applications, Transactions, Defaults}

func (s *Sources) Set(name string, t *dataset.Table) error {
	switch name {
	case Customers:
		s.Customers = t
	case Loans:
		s.Loans = t
	case Applications:
		s.Applications = t
	case Transactions:
		s.Transactions = t
	case Defaults:
		s.Defaults = t
	case Branches:
		s.Branches = t
	default:
		return fmt.Errorf("unknown dataset %q", name)
	}
	return nil
}

// Named returns the loaded datasets keyed by name, skipping nil ones.
func (s *Sources) Named() map[string]*dataset.Table {
	out := map[string]*dataset.Table{}
	for name, t := range map[string]*dataset.Table{
		Customers: s.Customers, Loans: s.Loans, Applications: s.Applications,
		Transactions: s.Transactions, Defaults: s.Defaults, Branches: s.Branches,
	} {
		if t != nil {
			out[name] = t
		}
	}
	return out
}

// SourceReader loads one raw dataset by name. Implementations return
// ErrSourceNotFound when the dataset does not exist at all.
type SourceReader interface {
	Load(ctx context.Context, name string) (*dataset.Table, error)
}

// Writer persists the finished loan master in one step.
type Writer interface {
	Write(ctx context.Context, t *dataset.Table) error
	Destination() string
}

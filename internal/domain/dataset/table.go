package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrDuplicateKey  = errors.New("duplicate join key")
	ErrCardinality   = errors.New("join changed row cardinality")
	ErrRowWidth      = errors.New("row width does not match columns")
	ErrColumnExists  = errors.New("column already exists")
)

// Table is an ordered set of named columns over row-major cells.
type Table struct {
	Name    string
	columns []string
	index   map[string]int
	rows    [][]Value
}

func New(name string, columns []string) (*Table, error) {
	t := &Table{Name: name, index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if _, ok := t.index[c]; ok {
			return nil, fmt.Errorf("%s: %w: %s", name, ErrColumnExists, c)
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// MustNew is New for column lists fixed at compile time.
func MustNew(name string, columns ...string) *Table {
	t, err := New(name, columns)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }
func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

func (t *Table) Index(col string) (int, error) {
	i, ok := t.index[col]
	if !ok {
		return -1, fmt.Errorf("%s: %w: %s", t.Name, ErrMissingColumn, col)
	}
	return i, nil
}

// Require fails on the first column the table does not carry.
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if _, err := t.Index(c); err != nil {
			return err
		}
	}
	return nil
}

// Append adds a copy of row, so callers may reuse the slice.
func (t *Table) Append(row []Value) error {
	if len(row) != len(t.columns) {
		return fmt.Errorf("%s: %w: got %d, want %d", t.Name, ErrRowWidth, len(row), len(t.columns))
	}
	t.rows = append(t.rows, append([]Value(nil), row...))
	return nil
}

func (t *Table) Row(i int) []Value { return t.rows[i] }

func (t *Table) Get(i int, col string) Value {
	j, ok := t.index[col]
	if !ok {
		return Absent
	}
	return t.rows[i][j]
}

// Clone copies the column layout and every row slice.
func (t *Table) Clone() *Table {
	out, _ := New(t.Name, t.columns)
	out.rows = make([][]Value, len(t.rows))
	for i, r := range t.rows {
		out.rows[i] = append([]Value(nil), r...)
	}
	return out
}

// Map replaces the named column cell by cell in a copy of the table.
func (t *Table) Map(col string, fn func(row int, v Value) (Value, error)) (*Table, error) {
	j, err := t.Index(col)
	if err != nil {
		return nil, err
	}
	out := t.Clone()
	for i, r := range out.rows {
		nv, err := fn(i, r[j])
		if err != nil {
			return nil, err
		}
		r[j] = nv
	}
	return out, nil
}

// WithColumn appends a derived column, or overwrites it if present.
func (t *Table) WithColumn(col string, fn func(row int) Value) *Table {
	out := t.Clone()
	j, ok := out.index[col]
	if !ok {
		j = len(out.columns)
		out.index[col] = j
		out.columns = append(out.columns, col)
		for i := range out.rows {
			out.rows[i] = append(out.rows[i], Absent)
		}
	}
	for i := range out.rows {
		out.rows[i][j] = fn(i)
	}
	return out
}

// Select projects the table onto cols, in that order.
func (t *Table) Select(cols ...string) (*Table, error) {
	idx := make([]int, len(cols))
	for k, c := range cols {
		j, err := t.Index(c)
		if err != nil {
			return nil, err
		}
		idx[k] = j
	}
	out, err := New(t.Name, cols)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]Value, len(t.rows))
	for i, r := range t.rows {
		nr := make([]Value, len(idx))
		for k, j := range idx {
			nr[k] = r[j]
		}
		out.rows[i] = nr
	}
	return out, nil
}

func (t *Table) Filter(keep func(row int) bool) *Table {
	out, _ := New(t.Name, t.columns)
	for i, r := range t.rows {
		if keep(i) {
			out.rows = append(out.rows, append([]Value(nil), r...))
		}
	}
	return out
}

func (t *Table) Rename(from, to string) (*Table, error) {
	j, err := t.Index(from)
	if err != nil {
		return nil, err
	}
	if from == to {
		return t.Clone(), nil
	}
	if t.Has(to) {
		return nil, fmt.Errorf("%s: %w: %s", t.Name, ErrColumnExists, to)
	}
	out := t.Clone()
	delete(out.index, from)
	out.index[to] = j
	out.columns[j] = to
	return out, nil
}

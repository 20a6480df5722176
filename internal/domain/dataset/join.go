package dataset

import "fmt"

// Suffixes applied to overlapping non-key columns, left then right.
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// AssertUnique fails when any present key value occurs on more than one row.
// Rows with an absent key are ignored: they can never match in a join.
func AssertUnique(t *Table, key string) error {
	j, err := t.Index(key)
	if err != nil {
		return err
	}
	seen := make(map[string]int, len(t.rows))
	for i, r := range t.rows {
		k, ok := r[j].Key()
		if !ok {
			continue
		}
		if first, dup := seen[k]; dup {
			return fmt.Errorf("%s.%s: %w: %q on rows %d and %d", t.Name, key, ErrDuplicateKey, k, first, i)
		}
		seen[k] = i
	}
	return nil
}

// LeftJoin keeps every row of left, in order, and widens it with the right
// columns of the single matching right row (absent when there is none).
// The right key must be unique; the right key column is dropped from the result.
func LeftJoin(left, right *Table, leftKey, rightKey string) (*Table, error) {
	lk, err := left.Index(leftKey)
	if err != nil {
		return nil, err
	}
	rk, err := right.Index(rightKey)
	if err != nil {
		return nil, err
	}
	if err := AssertUnique(right, rightKey); err != nil {
		return nil, err
	}

	lookup := make(map[string]int, len(right.rows))
	for i, r := range right.rows {
		if k, ok := r[rk].Key(); ok {
			lookup[k] = i
		}
	}

	var rightCols []int
	for j := range right.columns {
		if j != rk {
			rightCols = append(rightCols, j)
		}
	}

	cols := left.Columns()
	for _, j := range rightCols {
		name := right.columns[j]
		if li, clash := left.index[name]; clash && name != leftKey {
			cols[li] = name + LeftSuffix
			name += RightSuffix
		}
		cols = append(cols, name)
	}
	out, err := New(left.Name, cols)
	if err != nil {
		return nil, err
	}

	out.rows = make([][]Value, 0, len(left.rows))
	for _, lr := range left.rows {
		row := make([]Value, 0, len(cols))
		row = append(row, lr...)
		match, found := -1, false
		if k, ok := lr[lk].Key(); ok {
			match, found = lookup[k]
		}
		for _, j := range rightCols {
			if found {
				row = append(row, right.rows[match][j])
			} else {
				row = append(row, Absent)
			}
		}
		out.rows = append(out.rows, row)
	}

	if out.Len() != left.Len() {
		return nil, fmt.Errorf("%s left join %s: %w: %d -> %d", left.Name, right.Name, ErrCardinality, left.Len(), out.Len())
	}
	return out, nil
}

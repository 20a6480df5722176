package sqlstore

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gorm.io/gorm"

	"loan-master/internal/domain/dataset"
	lm "loan-master/internal/domain/loanmaster"
)

// SourceReader loads a raw dataset from the table of the same name.
type SourceReader struct{ db *gorm.DB }

func NewSourceReader(db *gorm.DB) *SourceReader { return &SourceReader{db: db} }

func (r *SourceReader) Load(ctx context.Context, name string) (*dataset.Table, error) {
	db := r.db.WithContext(ctx)
	if !db.Migrator().HasTable(name) {
		return nil, fmt.Errorf("table %s: %w", name, lm.ErrSourceNotFound)
	}
	rows, err := db.Table(name).Rows()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(types))
	for i, ct := range types {
		cols[i] = ct.Name()
	}
	t, err := dataset.New(name, cols)
	if err != nil {
		return nil, err
	}

	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		row := make([]dataset.Value, len(cols))
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		for i, v := range raw {
			if row[i], err = toValue(v, types[i].DatabaseTypeName()); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, cols[i], err)
			}
		}
		if err := t.Append(row); err != nil {
			return nil, err
		}
	}
	return t, rows.Err()
}

// toValue maps a driver value onto a cell. Decimal columns arrive as text
// from some drivers and are read as floats.
func toValue(v any, dbType string) (dataset.Value, error) {
	switch x := v.(type) {
	case nil:
		return dataset.Absent, nil
	case int64:
		return dataset.Int(x), nil
	case float64:
		if math.IsNaN(x) {
			return dataset.Undefined(), nil
		}
		return dataset.Float(x), nil
	case bool:
		return dataset.Int(cast.ToInt64(x)), nil
	case time.Time:
		return dataset.Date(x.UTC()), nil
	case []byte:
		return textValue(string(x), dbType)
	case string:
		return textValue(x, dbType)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return dataset.Absent, fmt.Errorf("unsupported driver value %T", v)
	}
	return dataset.Float(f), nil
}

func textValue(s, dbType string) (dataset.Value, error) {
	if i := strings.IndexByte(dbType, '('); i >= 0 {
		dbType = dbType[:i]
	}
	switch strings.ToUpper(dbType) {
	case "DECIMAL", "NUMERIC":
		f, err := cast.ToFloat64E(s)
		if err != nil {
			return dataset.Absent, err
		}
		return dataset.Float(f), nil
	}
	return dataset.String(s), nil
}

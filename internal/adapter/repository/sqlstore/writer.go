package sqlstore

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"

	"loan-master/internal/domain/dataset"
)

// maxParams stays under SQLite's default bound-parameter limit.
const maxParams = 999

// TableWriter replaces a SQL table with the rows of a dataset. Rows are
// loaded into a staging table first; the swap happens in one transaction.
// Undefined (NaN) cells are stored as NULL.
type TableWriter struct {
	db    *gorm.DB
	table string
}

func NewTableWriter(db *gorm.DB, table string) *TableWriter {
	return &TableWriter{db: db, table: table}
}

func (w *TableWriter) Destination() string {
	return w.db.Dialector.Name() + ":" + w.table
}

func (w *TableWriter) staging() string { return w.table + "__staging" }

func (w *TableWriter) Write(ctx context.Context, t *dataset.Table) error {
	db := w.db.WithContext(ctx)
	cols := t.Columns()
	kinds := columnKinds(t)

	if db.Migrator().HasTable(w.staging()) {
		if err := db.Migrator().DropTable(w.staging()); err != nil {
			return fmt.Errorf("drop staging: %w", err)
		}
	}
	if err := db.Exec(w.createSQL(db, w.staging(), cols, kinds)).Error; err != nil {
		return fmt.Errorf("create staging: %w", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		per := max(1, maxParams/max(1, len(cols)))
		for start := 0; start < t.Len(); start += per {
			end := min(t.Len(), start+per)
			query, args := w.insertSQL(tx, cols, kinds, t, start, end)
			if err := tx.Exec(query, args...).Error; err != nil {
				return fmt.Errorf("insert rows %d-%d: %w", start, end-1, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Migrator().DropTable(w.staging())
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if tx.Migrator().HasTable(w.table) {
			if err := tx.Migrator().DropTable(w.table); err != nil {
				return fmt.Errorf("drop %s: %w", w.table, err)
			}
		}
		if err := tx.Migrator().RenameTable(w.staging(), w.table); err != nil {
			return fmt.Errorf("rename staging to %s: %w", w.table, err)
		}
		return nil
	})
}

// columnKinds takes each column's kind from its first present cell. Columns
// mixing kinds are stored as text.
func columnKinds(t *dataset.Table) []dataset.Kind {
	cols := t.Columns()
	kinds := make([]dataset.Kind, len(cols))
	for c := range cols {
		for r := 0; r < t.Len(); r++ {
			k := t.Row(r)[c].Kind()
			if k == dataset.KindAbsent {
				continue
			}
			switch {
			case kinds[c] == dataset.KindAbsent:
				kinds[c] = k
			case kinds[c] == dataset.KindInt && k == dataset.KindFloat:
				kinds[c] = dataset.KindFloat
			case kinds[c] == dataset.KindFloat && k == dataset.KindInt:
			case kinds[c] != k:
				kinds[c] = dataset.KindString
			}
		}
	}
	return kinds
}

func sqlType(dialect string, k dataset.Kind) string {
	switch k {
	case dataset.KindInt:
		return "BIGINT"
	case dataset.KindFloat, dataset.KindAbsent:
		if dialect == "postgres" {
			return "DOUBLE PRECISION"
		}
		return "DOUBLE"
	case dataset.KindDate:
		if dialect == "postgres" {
			return "TIMESTAMP"
		}
		return "DATETIME"
	}
	return "TEXT"
}

func (w *TableWriter) createSQL(db *gorm.DB, table string, cols []string, kinds []dataset.Kind) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(db.Statement.Quote(table))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(db.Statement.Quote(c))
		b.WriteByte(' ')
		b.WriteString(sqlType(db.Dialector.Name(), kinds[i]))
	}
	b.WriteString(")")
	return b.String()
}

func (w *TableWriter) insertSQL(tx *gorm.DB, cols []string, kinds []dataset.Kind, t *dataset.Table, start, end int) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(tx.Statement.Quote(w.staging()))
	b.WriteString(" (")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(tx.Statement.Quote(c))
	}
	b.WriteString(") VALUES ")

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	args := make([]any, 0, (end-start)*len(cols))
	for r := start; r < end; r++ {
		if r > start {
			b.WriteString(", ")
		}
		b.WriteString(placeholder)
		for c, v := range t.Row(r) {
			args = append(args, arg(v, kinds[c]))
		}
	}
	return b.String(), args
}

func arg(v dataset.Value, col dataset.Kind) any {
	if v.IsAbsent() {
		return nil
	}
	if col == dataset.KindString {
		return v.Format()
	}
	switch v.Kind() {
	case dataset.KindInt:
		n, _ := v.Int()
		return n
	case dataset.KindFloat:
		f, _ := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case dataset.KindDate:
		d, _ := v.Time()
		return d
	}
	s, _ := v.Str()
	return s
}

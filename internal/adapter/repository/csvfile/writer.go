package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"loan-master/internal/domain/dataset"
)

// Writer replaces the file at Path with one CSV rendering of a table.
// Readers of Path never see a partial file: the body goes to a temp file
// in the same directory which is then renamed over Path.
type Writer struct {
	Path string
}

func NewWriter(path string) *Writer { return &Writer{Path: path} }

func (w *Writer) Destination() string { return w.Path }

func (w *Writer) Write(ctx context.Context, t *dataset.Table) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(w.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = Encode(bw, t); err != nil {
		return fmt.Errorf("encode %s: %w", t.Name, err)
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), w.Path); err != nil {
		return fmt.Errorf("publish %s: %w", w.Path, err)
	}
	return nil
}

// Encode writes the header and every row. Absent cells are empty, undefined
// cells are NaN.
func Encode(out io.Writer, t *dataset.Table) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns()))
	for r := 0; r < t.Len(); r++ {
		for c, v := range t.Row(r) {
			rec[c] = v.Format()
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

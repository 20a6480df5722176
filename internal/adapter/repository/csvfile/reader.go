package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"loan-master/internal/domain/dataset"
	lm "loan-master/internal/domain/loanmaster"
)

// naTokens are read as absent cells.
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {}, "-NaN": {}, "-nan": {},
	"1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {},
	"n/a": {}, "nan": {}, "null": {},
}

// SourceReader loads <Dir>/<name>.csv.
type SourceReader struct {
	Dir string
}

func NewSourceReader(dir string) *SourceReader { return &SourceReader{Dir: dir} }

func (r *SourceReader) Path(name string) string { return filepath.Join(r.Dir, name+".csv") }

func (r *SourceReader) Load(ctx context.Context, name string) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(r.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", r.Path(name), lm.ErrSourceNotFound)
		}
		return nil, err
	}
	defer f.Close()

	t, err := Decode(name, f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.Path(name), err)
	}
	return t, nil
}

// Decode reads a header row followed by records. Each column becomes int
// when every present cell parses as an integer, float when every present
// cell parses as a number, and string otherwise.
func Decode(name string, in io.Reader) (*dataset.Table, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = 0
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("no header row")
	}
	header := headerNames(records[0])
	body := records[1:]

	kinds := make([]dataset.Kind, len(header))
	for c := range header {
		kinds[c] = inferKind(body, c)
	}

	t, err := dataset.New(name, header)
	if err != nil {
		return nil, err
	}
	for _, rec := range body {
		row := make([]dataset.Value, len(header))
		for c := range header {
			row[c] = cell(rec[c], kinds[c])
		}
		if err := t.Append(row); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// headerNames trims a UTF-8 BOM and renames repeated names to name.1, name.2.
func headerNames(rec []string) []string {
	out := make([]string, len(rec))
	taken := map[string]bool{}
	count := map[string]int{}
	for i, h := range rec {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		name := h
		for taken[name] {
			count[h]++
			name = h + "." + strconv.Itoa(count[h])
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

func isNA(s string) bool {
	_, ok := naTokens[s]
	return ok
}

func inferKind(body [][]string, c int) dataset.Kind {
	kind := dataset.KindInt
	present := false
	for _, rec := range body {
		s := strings.TrimSpace(rec[c])
		if isNA(s) {
			continue
		}
		present = true
		if kind == dataset.KindInt {
			if _, err := strconv.ParseInt(s, 10, 64); err == nil {
				continue
			}
			kind = dataset.KindFloat
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return dataset.KindString
		}
	}
	if !present {
		// an all-empty column carries no type
		return dataset.KindFloat
	}
	return kind
}

func cell(raw string, kind dataset.Kind) dataset.Value {
	if isNA(strings.TrimSpace(raw)) {
		return dataset.Absent
	}
	switch kind {
	case dataset.KindInt:
		n, _ := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		return dataset.Int(n)
	case dataset.KindFloat:
		x, _ := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if math.IsNaN(x) {
			return dataset.Undefined()
		}
		return dataset.Float(x)
	}
	return dataset.String(raw)
}

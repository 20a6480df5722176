package sourcemock

import (
	"context"
	"fmt"
	"sync"

	"loan-master/internal/domain/dataset"
	lm "loan-master/internal/domain/loanmaster"
)

// Reader is a function-backed mock that satisfies loanmaster.SourceReader.
// With LoadFn unset it serves Tables and reports ErrSourceNotFound otherwise.
type Reader struct {
	LoadFn func(ctx context.Context, name string) (*dataset.Table, error)
	Tables map[string]*dataset.Table
}

func (m *Reader) Load(ctx context.Context, name string) (*dataset.Table, error) {
	if m.LoadFn != nil {
		return m.LoadFn(ctx, name)
	}
	if t, ok := m.Tables[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%s: %w", name, lm.ErrSourceNotFound)
}

// Writer is a function-backed mock that satisfies loanmaster.Writer and
// remembers the last table written.
type Writer struct {
	WriteFn func(ctx context.Context, t *dataset.Table) error
	Dest    string

	mu     sync.Mutex
	last   *dataset.Table
	writes int
}

func (m *Writer) Write(ctx context.Context, t *dataset.Table) error {
	if m.WriteFn != nil {
		if err := m.WriteFn(ctx, t); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = t
	m.writes++
	return nil
}

func (m *Writer) Destination() string {
	if m.Dest == "" {
		return "mock"
	}
	return m.Dest
}

// Last returns the last successfully written table and the write count.
func (m *Writer) Last() (*dataset.Table, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.writes
}

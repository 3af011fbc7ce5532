package memory

import (
	"context"
	"fmt"
	"sync"

	"spendlens/internal/core"
	ports "spendlens/internal/sheets"
)

// Store is an in-process exporter keeping every appended row.
type Store struct {
	mu   sync.Mutex
	rows [][]any
}

var _ ports.ExpenseExporter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, ports.Row(e))
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of what has been appended so far.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.rows...)
}

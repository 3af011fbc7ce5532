package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"spendlens/internal/core"
)

// MemoryRepository keeps expenses in process memory. Used for the memory
// backend and in tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]core.Expense
}

func NewMemory() *MemoryRepository {
	return &MemoryRepository{rows: make(map[int64]core.Expense)}
}

func (m *MemoryRepository) Ping(context.Context) error { return nil }

func (m *MemoryRepository) Close() error { return nil }

func (m *MemoryRepository) Insert(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = m.nextID
	e.SpentAt = e.SpentAt.Truncate(time.Second)
	m.rows[e.ID] = e
	return e, nil
}

func (m *MemoryRepository) List(_ context.Context, userID int64, month string) ([]core.Expense, error) {
	if err := core.ValidateMonth(month); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]core.Expense, 0)
	for _, e := range m.rows {
		if e.UserID != userID {
			continue
		}
		if month != "" && core.MonthOf(e.SpentAt) != month {
			continue
		}
		out = append(out, e)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SpentAt.Equal(out[j].SpentAt) {
			return out[i].SpentAt.After(out[j].SpentAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *MemoryRepository) Get(_ context.Context, id, userID int64) (core.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.rows[id]
	if !ok || e.UserID != userID {
		return core.Expense{}, ErrNotFound
	}
	return e, nil
}

func (m *MemoryRepository) Update(_ context.Context, e core.Expense) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.rows[e.ID]
	if !ok || current.UserID != e.UserID {
		return core.Expense{}, ErrNotFound
	}
	e.SpentAt = current.SpentAt
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	m.rows[e.ID] = e
	return e, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok || e.UserID != userID {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *MemoryRepository) DeleteAll(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, e := range m.rows {
		if e.UserID == userID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

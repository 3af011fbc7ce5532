package memory

import (
	"context"
	"testing"
	"time"

	"spendlens/internal/core"
)

func TestMemoryStoreAppend(t *testing.T) {
	s := New()
	e := core.Expense{
		UserID:      1,
		Description: "books",
		Amount:      core.Money{Cents: 120000},
		Category:    core.CategoryEducation,
		SpentAt:     time.Date(2025, 1, 2, 9, 30, 0, 0, time.Local),
	}
	ref, err := s.Append(context.Background(), e)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q", ref)
	}

	if _, err := s.Append(context.Background(), core.Expense{}); err == nil {
		t.Error("invalid expense should be rejected")
	}

	rows := s.Rows()
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d", len(rows))
	}
	if rows[0][0] != "2025-01-02" || rows[0][3] != "books" || rows[0][5] != "Education" {
		t.Errorf("row = %v", rows[0])
	}
}

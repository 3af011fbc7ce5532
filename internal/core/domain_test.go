package core

import (
	"errors"
	"testing"
	"time"
)

func TestExpenseValidate(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	good := Expense{UserID: 1, Description: "pizza", Amount: Money{Cents: 100}, Category: CategoryFood, SpentAt: now}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		e   Expense
		err error
	}{
		{Expense{UserID: 0, Description: "a", Amount: Money{Cents: 1}, Category: CategoryFood, SpentAt: now}, ErrInvalidUser},
		{Expense{UserID: 1, Description: " ", Amount: Money{Cents: 1}, Category: CategoryFood, SpentAt: now}, ErrEmptyDescription},
		{Expense{UserID: 1, Description: "a", Amount: Money{Cents: 0}, Category: CategoryFood, SpentAt: now}, ErrInvalidAmount},
		{Expense{UserID: 1, Description: "a", Amount: Money{Cents: 1}, Category: "Groceries", SpentAt: now}, ErrUnknownCategory},
		{Expense{UserID: 1, Description: "a", Amount: Money{Cents: 1}, Category: CategoryFood}, ErrInvalidDate},
	}
	for i, tc := range bads {
		if err := tc.e.Validate(); !errors.Is(err, tc.err) {
			t.Fatalf("case %d expected %v, got %v", i, tc.err, err)
		}
	}
}

func TestResolveSpentAt(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 11, 12, 500, time.UTC)

	got, err := ResolveSpentAt(now, "")
	if err != nil || FormatTimestamp(got) != "2025-03-04 10:11:12" {
		t.Fatalf("unexpected %v %v", got, err)
	}

	got, err = ResolveSpentAt(now, "2025-02-28")
	if err != nil || FormatTimestamp(got) != "2025-02-28 10:11:12" {
		t.Fatalf("backdate not applied: %v %v", got, err)
	}

	if _, err := ResolveSpentAt(now, "28/02/2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{"2025-03-04 10:11:12", "2025-03-04"} {
		ts, err := ParseTimestamp(s)
		if err != nil {
			t.Fatalf("%q: %v", s, err)
		}
		if MonthOf(ts) != "2025-03" {
			t.Fatalf("%q: month %s", s, MonthOf(ts))
		}
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCategorySet(t *testing.T) {
	if n := len(FinanceCategories()); n != 10 {
		t.Fatalf("expected 10 finance categories, got %d", n)
	}
	all := AllCategories()
	if all[len(all)-1] != CategoryUnknown {
		t.Fatalf("Unknown must be last")
	}
	c, err := ParseCategory("food & dining")
	if err != nil || c != CategoryFood {
		t.Fatalf("ParseCategory: %v %v", c, err)
	}
	if _, err := ParseCategory("Groceries"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if Category("Groceries").Valid() {
		t.Fatal("free text must not be a valid category")
	}
}

func TestValidateMonth(t *testing.T) {
	if err := ValidateMonth(""); err != nil {
		t.Fatal(err)
	}
	if err := ValidateMonth("2025-13"); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

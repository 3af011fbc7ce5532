package corpus

import (
	"errors"
	"testing"

	"spendlens/internal/core"
)

func TestDefaultCoversEveryFinanceCategory(t *testing.T) {
	examples, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	counts := map[core.Category]int{}
	for _, e := range examples {
		counts[e.Category]++
	}
	for _, c := range core.FinanceCategories() {
		if counts[c] < 10 {
			t.Errorf("category %q has only %d examples", c, counts[c])
		}
	}
	if counts[core.CategoryUnknown] != 0 {
		t.Error("Unknown must not be a training label")
	}
}

func TestParseOrdersByCategory(t *testing.T) {
	doc := []byte(`
"Shopping": [shoes, " Shirt "]
"Food & Dining": [pizza]
`)
	got, err := Parse(doc)
	if err != nil {
		t.Fatal(err)
	}
	want := []Example{
		{"pizza", core.CategoryFood},
		{"shoes", core.CategoryShopping},
		{"shirt", core.CategoryShopping},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("example %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte(`"Groceries": [milk]`)); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, err := Parse([]byte(`{}`)); !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
	if _, err := Parse([]byte(`[unclosed`)); err == nil {
		t.Fatal("expected yaml error")
	}
}

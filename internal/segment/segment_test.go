package segment

import (
	"testing"

	"spendlens/internal/core"
)

func item(desc string, cents int64) core.Item {
	return core.Item{Description: desc, Amount: core.Money{Cents: cents}}
}

func equalItems(a, b []core.Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []core.Item
	}{
		{"multi item", "pizza 700 cooking oil 700 cigs 150", []core.Item{item("pizza", 70000), item("cooking oil", 70000), item("cigs", 15000)}},
		{"single", "Uber 500", []core.Item{item("Uber", 50000)}},
		{"no numbers", "just text no numbers", nil},
		{"conjunction", "pizza 700 and coke 120", []core.Item{item("pizza", 70000), item("coke", 12000)}},
		{"commas", "bread 90, eggs 240,", []core.Item{item("bread", 9000), item("eggs", 24000)}},
		{"decimal", "coffee 3.50", []core.Item{item("coffee", 350)}},
		{"grouped thousands", "rent 25,000", []core.Item{item("rent", 2500000)}},
		{"keeps words ending in and", "salad 300", []core.Item{item("salad", 30000)}},
		{"number first uses fallback", "500 uber", []core.Item{item("uber", 50000)}},
		{"bare number", "500", []core.Item{item("", 50000)}},
		{"amount beyond int64 cents", "pizza 184467440737095517", nil},
		{"empty", "   ", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.in)
			if !equalItems(got, tc.want) {
				t.Fatalf("Parse(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestPrimaryDoesNotFallBack(t *testing.T) {
	if got := Primary("500 uber"); len(got) != 0 {
		t.Fatalf("primary pass should find nothing, got %+v", got)
	}
	got, ok := Fallback("paid 1200 for groceries")
	if !ok || got != item("paid for groceries", 120000) {
		t.Fatalf("unexpected fallback %+v %v", got, ok)
	}
	if _, ok := Fallback("no digits here"); ok {
		t.Fatal("fallback without a number must report false")
	}
}

func TestParseOrderPreserved(t *testing.T) {
	got := Parse("a b 1 c d 2 e f 3")
	want := []string{"a b", "c d", "e f"}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Description != want[i] {
			t.Fatalf("item %d = %q, want %q", i, got[i].Description, want[i])
		}
	}
}

package core

import (
	"errors"
	"strings"
)

// Category is one label of the closed spending-category set.
type Category string

const (
	CategoryFood          Category = "Food & Dining"
	CategoryTransport     Category = "Transportation"
	CategoryHousing       Category = "Housing & Utilities"
	CategoryMobile        Category = "Mobile & Communication"
	CategoryShopping      Category = "Shopping"
	CategoryHealth        Category = "Health & Fitness"
	CategoryEducation     Category = "Education"
	CategoryEntertainment Category = "Entertainment"
	CategoryGifts         Category = "Gifts & Donations"
	CategoryFinancial     Category = "Financial / Others"

	// CategoryUnknown is returned when nothing better can be said about a description.
	CategoryUnknown Category = "Unknown"
)

var ErrUnknownCategory = errors.New("unknown category")

// financeCategories is ordered; listings and history groups follow this order.
var financeCategories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryHousing,
	CategoryMobile,
	CategoryShopping,
	CategoryHealth,
	CategoryEducation,
	CategoryEntertainment,
	CategoryGifts,
	CategoryFinancial,
}

// FinanceCategories returns the ten finance categories in display order.
func FinanceCategories() []Category {
	out := make([]Category, len(financeCategories))
	copy(out, financeCategories)
	return out
}

// AllCategories returns every member of the set, Unknown last.
func AllCategories() []Category {
	return append(FinanceCategories(), CategoryUnknown)
}

func (c Category) String() string { return string(c) }

// Valid reports whether c belongs to the category set.
func (c Category) Valid() bool {
	return c.Position() >= 0
}

// Position is the display index of c, or -1 when c is not a member.
func (c Category) Position() int {
	for i, k := range financeCategories {
		if k == c {
			return i
		}
	}
	if c == CategoryUnknown {
		return len(financeCategories)
	}
	return -1
}

// ParseCategory resolves a label case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range AllCategories() {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// TimestampLayout is how expense times are stored: sortable and prefix-filterable by month.
	TimestampLayout = "2006-01-02 15:04:05"
	DayLayout       = "2006-01-02"
	MonthLayout     = "2006-01"

	MaxDescriptionLen = 200
)

type (
	// Item is one (description, amount) pair produced by the segmenter or the receipt extractor.
	Item struct {
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
	}

	Expense struct {
		ID          int64     `json:"id"`
		UserID      int64     `json:"user_id"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Category    Category  `json:"category"`
		SpentAt     time.Time `json:"spent_at"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidUser        = errors.New("invalid user id")
	ErrInvalidDate        = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidMonth       = errors.New("invalid month, expected YYYY-MM")
)

func (e Expense) Validate() error {
	if e.UserID <= 0 {
		return ErrInvalidUser
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrUnknownCategory
	}
	if e.SpentAt.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day is the calendar day of the expense ("YYYY-MM-DD").
func (e Expense) Day() string {
	return e.SpentAt.Format(DayLayout)
}

// FormatTimestamp renders t in the storage layout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp accepts the storage layout and, for older rows, a bare day.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(TimestampLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(DayLayout, s, time.Local)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// ResolveSpentAt applies an optional "YYYY-MM-DD" backdate to now, keeping now's time of day.
func ResolveSpentAt(now time.Time, backdate string) (time.Time, error) {
	backdate = strings.TrimSpace(backdate)
	if backdate == "" {
		return now.Truncate(time.Second), nil
	}
	d, err := time.ParseInLocation(DayLayout, backdate, now.Location())
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return time.Date(d.Year(), d.Month(), d.Day(), now.Hour(), now.Minute(), now.Second(), 0, now.Location()), nil
}

// MonthOf returns the "YYYY-MM" key of t.
func MonthOf(t time.Time) string {
	return t.Format(MonthLayout)
}

// ValidateMonth checks an optional "YYYY-MM" filter. Empty means no filter.
func ValidateMonth(month string) error {
	if month == "" {
		return nil
	}
	if _, err := time.Parse(MonthLayout, month); err != nil {
		return ErrInvalidMonth
	}
	return nil
}

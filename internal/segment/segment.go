// Package segment splits one free-text line such as
// "pizza 700 cooking oil 700 cigs 150" into (description, amount) items.
//
// Parsing is two explicit steps. Primary finds every "words then number"
// fragment; Fallback runs only when Primary finds nothing and turns the first
// number in the line into a single item.
package segment

import (
	"regexp"
	"strings"

	"spendlens/internal/core"
)

var (
	// A lazy run of letters, whitespace or commas directly followed by an
	// integer or a decimal with up to two fraction digits.
	fragmentRe = regexp.MustCompile(`([A-Za-z\s,]+?)(\d+(?:\.\d{1,2})?)`)
	numberRe   = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// "1,500" is one number, not "1" followed by ",500".
	groupedRe = regexp.MustCompile(`(\d),(\d{3})\b`)
)

// Parse returns the items of raw in left-to-right order. A line without any
// number yields nil.
func Parse(raw string) []core.Item {
	if items := Primary(raw); len(items) > 0 {
		return items
	}
	if item, ok := Fallback(raw); ok {
		return []core.Item{item}
	}
	return nil
}

// Primary extracts every description/amount fragment. Fragments whose
// cleaned description is empty are dropped.
func Primary(raw string) []core.Item {
	raw = normalize(raw)
	var items []core.Item
	for _, m := range fragmentRe.FindAllStringSubmatch(raw, -1) {
		desc := clean(m[1])
		if desc == "" {
			continue
		}
		amount, err := core.ParseAmount(m[2])
		if err != nil {
			continue
		}
		items = append(items, core.Item{Description: desc, Amount: amount})
	}
	return items
}

// Fallback treats the first number anywhere in raw as the amount and the rest
// of the line as the description. The description may be empty; callers
// decide whether that is usable.
func Fallback(raw string) (core.Item, bool) {
	raw = normalize(raw)
	loc := numberRe.FindStringIndex(raw)
	if loc == nil {
		return core.Item{}, false
	}
	amount, err := core.ParseAmount(raw[loc[0]:loc[1]])
	if err != nil {
		return core.Item{}, false
	}
	rest := raw[:loc[0]] + " " + raw[loc[1]:]
	return core.Item{
		Description: clean(strings.Join(strings.Fields(rest), " ")),
		Amount:      amount,
	}, true
}

func normalize(raw string) string {
	for {
		next := groupedRe.ReplaceAllString(raw, "$1$2")
		if next == raw {
			return raw
		}
		raw = next
	}
}

// clean trims whitespace, commas and a dangling "and" from either end.
func clean(s string) string {
	for {
		prev := s
		s = strings.Trim(strings.TrimSpace(s), ",")
		s = strings.TrimSpace(s)
		lower := strings.ToLower(s)
		switch {
		case lower == "and":
			s = ""
		case strings.HasPrefix(lower, "and ") || strings.HasPrefix(lower, "and,"):
			s = s[3:]
		case strings.HasSuffix(lower, " and") || strings.HasSuffix(lower, ",and"):
			s = s[:len(s)-3]
		}
		if s == prev {
			return s
		}
	}
}

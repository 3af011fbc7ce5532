// Package receipt turns raw OCR text into expense items.
//
// Receipt text is noisy. ExtractItems keeps only lines that look like
// "name ... price" and skips totals, taxes and payment footers; when it finds
// nothing, ExtractTotal falls back to a single expense for the whole receipt.
package receipt

import (
	"regexp"
	"strings"

	"spendlens/internal/core"
)

const (
	minDescriptionLen = 3
	maxDescriptionLen = 50

	// DefaultDescription is used when the fallback cannot find a usable first line.
	DefaultDescription = "Scanned Receipt"
	// EmptyDescription is used for receipts without any text at all.
	EmptyDescription = "Receipt"
)

// noiseKeywords mark footer and header lines that are never line items.
var noiseKeywords = []string{
	"total", "subtotal", "tax", "cash", "change", "due",
	"visa", "mastercard", "date", "time", "receipt", "thank",
}

var (
	wordsRe  = regexp.MustCompile(`[A-Za-z][A-Za-z\s]*`)
	priceRe  = regexp.MustCompile(`\d+\.?\d{0,2}`)
	amountRe = regexp.MustCompile(`\b\d+\.\d{2}\b|\b\d+\b`)
)

// Lines splits text into trimmed, non-empty lines.
func Lines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// IsNoise reports whether a line is a footer, header or payment line.
func IsNoise(line string) bool {
	lower := strings.ToLower(line)
	for _, k := range noiseKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// ExtractItems returns the line items of a receipt in line order.
func ExtractItems(text string) []core.Item {
	var items []core.Item
	for _, line := range Lines(text) {
		if IsNoise(line) {
			continue
		}
		if it, ok := parseLine(line); ok {
			items = append(items, it)
		}
	}
	return items
}

// parseLine reads the first alphabetic run as the name and the last number
// after it as the price. Quantities printed between the two are ignored.
func parseLine(line string) (core.Item, bool) {
	loc := wordsRe.FindStringIndex(line)
	if loc == nil {
		return core.Item{}, false
	}
	desc := strings.TrimSpace(line[loc[0]:loc[1]])
	if len(desc) < minDescriptionLen || len(desc) > maxDescriptionLen {
		return core.Item{}, false
	}
	prices := priceRe.FindAllString(line[loc[1]:], -1)
	if len(prices) == 0 {
		return core.Item{}, false
	}
	amount, err := core.ParseAmount(prices[len(prices)-1])
	if err != nil {
		return core.Item{}, false
	}
	return core.Item{Description: desc, Amount: amount}, true
}

// ExtractTotal is the single-expense fallback: the largest number on the
// receipt is the amount and the first line names it, unless that line is the
// amount itself. The amount is zero when the text carries no number.
func ExtractTotal(text string) (string, core.Money) {
	lines := Lines(text)
	if len(lines) == 0 {
		return EmptyDescription, core.Money{}
	}

	var best core.Money
	for _, tok := range amountRe.FindAllString(text, -1) {
		m, err := core.ParseAmount(tok)
		if err != nil {
			continue
		}
		if m.Cents > best.Cents {
			best = m
		}
	}

	desc := lines[0]
	if m, err := core.ParseAmount(desc); err == nil && m == best {
		desc = ""
		if len(lines) > 1 {
			desc = lines[1]
		}
	}
	if desc == "" {
		desc = DefaultDescription
	}
	return desc, best
}

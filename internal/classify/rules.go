package classify

import (
	"strings"

	"spendlens/internal/core"
)

// Rule short-circuits the statistical model when Match accepts the
// normalised (lowercased, trimmed) description.
type Rule struct {
	Name     string
	Match    func(text string) bool
	Category core.Category
}

// vehicleCues mark "oil" as motor oil. Matching is by substring.
var vehicleCues = []string{"engine", "mobil", "car", "bike", "brake", "change", "filter", "zong"}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// DefaultRules disambiguates "oil": motor oil when a vehicle cue is present,
// otherwise food unless the text says "cooking", in which case no rule fires
// and the model decides.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "oil-vehicle",
			Match: func(text string) bool {
				return strings.Contains(text, "oil") && containsAny(text, vehicleCues)
			},
			Category: core.CategoryTransport,
		},
		{
			Name: "oil-food",
			Match: func(text string) bool {
				return strings.Contains(text, "oil") && !strings.Contains(text, "cooking")
			},
			Category: core.CategoryFood,
		},
	}
}

// firstMatch returns the first rule accepting text.
func firstMatch(rules []Rule, text string) (Rule, bool) {
	for _, r := range rules {
		if r.Match(text) {
			return r, true
		}
	}
	return Rule{}, false
}

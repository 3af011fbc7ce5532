// Package corpus embeds the labelled training data for the expense classifier.
package corpus

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"spendlens/internal/core"

	yaml "gopkg.in/yaml.v2"
)

//go:embed training.yaml
var embedded []byte

var ErrEmptyCorpus = errors.New("training corpus is empty")

// Example is one labelled description.
type Example struct {
	Description string
	Category    core.Category
}

// Default returns the embedded corpus.
func Default() ([]Example, error) {
	return Parse(embedded)
}

// Parse reads a YAML document mapping category labels to lists of
// descriptions. Examples come back grouped by category display order,
// keeping file order inside a category.
func Parse(data []byte) ([]Example, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}

	labels := make([]core.Category, 0, len(raw))
	byLabel := make(map[core.Category][]string, len(raw))
	for label, descs := range raw {
		cat, err := core.ParseCategory(label)
		if err != nil {
			return nil, fmt.Errorf("corpus label %q: %w", label, err)
		}
		labels = append(labels, cat)
		byLabel[cat] = append(byLabel[cat], descs...)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].Position() < labels[j].Position() })

	var out []Example
	seen := make(map[core.Category]bool, len(labels))
	for _, cat := range labels {
		if seen[cat] {
			continue
		}
		seen[cat] = true
		for _, d := range byLabel[cat] {
			d = strings.ToLower(strings.TrimSpace(d))
			if d == "" {
				continue
			}
			out = append(out, Example{Description: d, Category: cat})
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyCorpus
	}
	return out, nil
}

// Split returns the descriptions and labels as parallel slices.
func Split(examples []Example) ([]string, []core.Category) {
	texts := make([]string, len(examples))
	labels := make([]core.Category, len(examples))
	for i, e := range examples {
		texts[i] = e.Description
		labels[i] = e.Category
	}
	return texts, labels
}

package config

import (
	"fmt"

	"github.com/spf13/viper"

	"spendlens/internal/analytics"
	"spendlens/internal/core"
)

// budgetFile is the on-disk shape of a budgets file, e.g. in YAML:
//
//	currency: PKR
//	overall: 100000
//	fallback: 20000
//	categories:
//	  Food & Dining: 30000
type budgetFile struct {
	Currency   string             `mapstructure:"currency"`
	Overall    float64            `mapstructure:"overall"`
	Fallback   float64            `mapstructure:"fallback"`
	Categories map[string]float64 `mapstructure:"categories"`
}

// LoadCeilings reads budget ceilings from path (YAML, TOML or JSON by
// extension). Values left out of the file keep their defaults. An empty
// path returns the defaults.
func LoadCeilings(path string) (analytics.Ceilings, error) {
	ceilings := analytics.DefaultCeilings()
	if path == "" {
		return ceilings, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return ceilings, fmt.Errorf("read budgets file: %w", err)
	}
	var f budgetFile
	if err := v.Unmarshal(&f); err != nil {
		return ceilings, fmt.Errorf("decode budgets file: %w", err)
	}

	if f.Currency != "" {
		ceilings.Currency = f.Currency
	}
	if f.Overall != 0 {
		if f.Overall < 0 {
			return ceilings, fmt.Errorf("overall ceiling must be positive, got %v", f.Overall)
		}
		ceilings.Overall = core.FromFloat(f.Overall)
	}
	if f.Fallback != 0 {
		if f.Fallback < 0 {
			return ceilings, fmt.Errorf("fallback ceiling must be positive, got %v", f.Fallback)
		}
		ceilings.Fallback = core.FromFloat(f.Fallback)
	}

	per := make(map[core.Category]core.Money, len(ceilings.PerCategory))
	for c, m := range ceilings.PerCategory {
		per[c] = m
	}
	// viper lower-cases keys; ParseCategory is case-insensitive
	for name, amount := range f.Categories {
		cat, err := core.ParseCategory(name)
		if err != nil {
			return ceilings, fmt.Errorf("budget for %q: %w", name, err)
		}
		if amount <= 0 {
			return ceilings, fmt.Errorf("budget for %s must be positive, got %v", cat, amount)
		}
		per[cat] = core.FromFloat(amount)
	}
	ceilings.PerCategory = per
	return ceilings, nil
}

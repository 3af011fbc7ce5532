package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/viper"

	"spendlens/internal/analytics"
	"spendlens/internal/backend"
	"spendlens/internal/cli"
	"spendlens/internal/config"
	"spendlens/internal/core"
	"spendlens/internal/services"
	"spendlens/internal/storage"
)

var (
	warn     = color.New(color.FgYellow).PrintfFunc()
	errorf   = color.New(color.BgRed, color.FgWhite).PrintfFunc()
	catLabel = color.New(color.BgGreen, color.FgBlack).SprintfFunc()
	heading  = color.New(color.Bold, color.FgCyan).PrintlnFunc()
)

// loadConfig is the server configuration with CLI overrides applied.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if v := viper.GetString("model.path"); v != "" {
		cfg.ModelPath = v
	}
	if v := viper.GetString("model.kind"); v != "" {
		cfg.ModelKind = v
	}
	if v := viper.GetString("database.path"); v != "" {
		cfg.StorageBackend = string(backend.SQLiteBackend)
		cfg.SQLiteDBPath = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func userID() (int64, error) {
	id := viper.GetInt64("user")
	if id <= 0 {
		return 0, core.ErrInvalidUser
	}
	return id, nil
}

// app holds what the expense commands share. close must be called.
type app struct {
	cfg        *config.Config
	store      storage.Store
	classifier *cli.Classifier
	expenses   *services.ExpenseService
	aggregator *analytics.Aggregator
	cleanup    func() error
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(nil).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	clf, err := cli.NewClassifier(cfg, nil)
	if err != nil {
		_ = res.Cleanup()
		return nil, err
	}
	ceilings, err := config.LoadCeilings(cfg.BudgetsFile)
	if err != nil {
		_ = clf.Close()
		_ = res.Cleanup()
		return nil, err
	}
	return &app{
		cfg:        cfg,
		store:      res.Store,
		classifier: clf,
		expenses:   services.NewExpenseService(res.Store, clf),
		aggregator: analytics.NewAggregator(res.Store, analytics.WithCeilings(ceilings)),
		cleanup:    res.Cleanup,
	}, nil
}

func (a *app) close() {
	_ = a.classifier.Close()
	if err := a.cleanup(); err != nil {
		warn("closing store: %v\n", err)
	}
}

func printExpenses(list []core.Expense, currency string) {
	for _, e := range list {
		fmt.Printf("#%-5d %s %s %s %s\n",
			e.ID,
			e.SpentAt.Format(core.DayLayout),
			catLabel(" %-22s ", e.Category),
			padRight(e.Description, 30),
			currency+" "+e.Amount.Grouped())
	}
}

func padRight(s string, n int) string {
	r := []rune(s)
	if len(r) >= n {
		return string(r[:n])
	}
	return s + strings.Repeat(" ", n-len(r))
}

// Package cli provides the initialization shared by cmd/spendlens,
// cmd/spendlens-worker and cmd/spendlens-cli.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendlens/internal/analytics"
	"spendlens/internal/artifact"
	"spendlens/internal/backend"
	"spendlens/internal/classify"
	"spendlens/internal/config"
	"spendlens/internal/corpus"
	applog "spendlens/internal/log"
	"spendlens/internal/ml"
	"spendlens/internal/storage"
)

// SetupLogger installs a text or json handler at the given level as the
// default logger and returns it.
func SetupLogger(level, format string) *slog.Logger {
	logger := slog.New(applog.NewHandler(os.Stdout, applog.ParseLevel(level), format))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitStore opens the configured expense store or exits.
func InitStore(ctx context.Context, logger *slog.Logger, cfg *config.Config) (storage.Store, func() error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid storage configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "backend", bcfg.Type)
		os.Exit(1)
	}
	return res.Store, res.Cleanup
}

// Classifier bundles the cached classifier with the artifact store it owns.
type Classifier struct {
	*classify.Cached
	store *artifact.BoltStore
}

func (c *Classifier) Close() error {
	return c.store.Close()
}

// NewClassifier opens the artifact store at cfg.ModelPath and builds a
// classifier trained from the embedded corpus on demand. A corpus that
// cannot be read is fatal to the caller.
func NewClassifier(cfg *config.Config, progress func(class, epoch int)) (*Classifier, error) {
	examples, err := corpus.Default()
	if err != nil {
		return nil, fmt.Errorf("load training corpus: %w", err)
	}
	store, err := artifact.OpenBolt(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("open model store: %w", err)
	}
	train := classify.CorpusTrainer(examples, ml.TrainOptions{
		Kind: cfg.ModelKind,
		SGD:  ml.SGDOptions{Progress: progress},
	})
	c := classify.New(store, train, classify.WithLogger(applog.NewLogger(applog.ComponentClassifier)))
	return &Classifier{Cached: classify.NewCached(c, cfg.ClassifyCacheSize, cfg.ClassifyCacheTTL), store: store}, nil
}

// InitClassifier is NewClassifier that exits on failure.
func InitClassifier(logger *slog.Logger, cfg *config.Config) *Classifier {
	c, err := NewClassifier(cfg, nil)
	if err != nil {
		logger.Error("Failed to initialize classifier", "error", err, "model_path", cfg.ModelPath)
		os.Exit(1)
	}
	return c
}

// InitCeilings loads budget ceilings or exits.
func InitCeilings(logger *slog.Logger, cfg *config.Config) analytics.Ceilings {
	ceilings, err := config.LoadCeilings(cfg.BudgetsFile)
	if err != nil {
		logger.Error("Failed to load budgets", "error", err, "path", cfg.BudgetsFile)
		os.Exit(1)
	}
	return ceilings
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

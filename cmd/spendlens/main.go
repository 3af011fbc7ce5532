package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlens/internal/amqp"
	"spendlens/internal/analytics"
	"spendlens/internal/assistant"
	"spendlens/internal/cache"
	"spendlens/internal/cli"
	apphttp "spendlens/internal/http"
	"spendlens/internal/receipt"
	"spendlens/internal/services"
	"spendlens/internal/worker"
)

const (
	localReceiptWorkers  = 2
	localReceiptCapacity = 32
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := cli.InitStore(ctx, logger, cfg)
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()

	clf := cli.InitClassifier(logger, cfg)
	defer clf.Close()

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(clf.Memo())
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	ceilings := cli.InitCeilings(logger, cfg)

	var (
		broker *amqp.Client
		opts   []services.Option
	)
	if cfg.AMQPEnabled() {
		var err error
		broker, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPExportQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer broker.Close()
		if cfg.SheetsExportEnabled {
			opts = append(opts, services.WithPublisher(broker, cfg.AMQPExportQueue))
		}
	}

	expenses := services.NewExpenseService(store, clf, opts...)
	receipts := services.NewReceiptService(expenses, receipt.NewTesseract(cfg.TesseractPath, cfg.OCRTimeout))
	agg := analytics.NewAggregator(store, analytics.WithCeilings(ceilings))

	g, gctx := errgroup.WithContext(ctx)

	var queue apphttp.ReceiptQueue
	if broker != nil {
		queue = broker
		logger.Info("Receipt scans go to the broker", "queue", cfg.AMQPQueue)
	} else {
		local := worker.NewLocalQueue(worker.NewReceiptWorker(receipts).HandleScan, localReceiptWorkers, localReceiptCapacity)
		queue = local
		g.Go(func() error { return local.Run(gctx) })
		logger.Info("No broker configured, scanning receipts in-process", "workers", localReceiptWorkers)
	}

	// Load or train the model off the startup path.
	g.Go(func() error {
		if err := clf.Load(gctx); err != nil {
			logger.Error("Initial classifier load failed, will retry on first prediction", "error", err)
		}
		return nil
	})

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Expenses:           expenses,
		Receipts:           receipts,
		Classifier:         clf,
		Dashboard:          agg,
		Assistant:          assistant.NewRouter(agg, ceilings.Currency),
		Queue:              queue,
		Store:              store,
		Cache:              clf.Memo(),
		UploadMaxBytes:     cfg.UploadMaxBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g.Go(func() error {
		logger.Info("Starting spendlens server",
			"port", cfg.Port,
			"backend", cfg.StorageBackend,
			"model_kind", cfg.ModelKind,
			"amqp", cfg.AMQPEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	slog.Info("Server stopped gracefully")
}

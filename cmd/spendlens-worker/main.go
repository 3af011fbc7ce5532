package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlens/internal/amqp"
	"spendlens/internal/cli"
	"spendlens/internal/receipt"
	"spendlens/internal/services"
	gsheet "spendlens/internal/sheets/google"
	"spendlens/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	logger.Info("Starting spendlens-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	store, closeStore := cli.InitStore(context.Background(), logger, cfg)
	clf := cli.InitClassifier(logger, cfg)

	broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPExportQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		_ = broker.Close()
		_ = clf.Close()
		if err := closeStore(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	})

	var opts []services.Option
	if cfg.SheetsExportEnabled {
		opts = append(opts, services.WithPublisher(broker, cfg.AMQPExportQueue))
	}
	expenses := services.NewExpenseService(store, clf, opts...)
	receipts := services.NewReceiptService(expenses, receipt.NewTesseract(cfg.TesseractPath, cfg.OCRTimeout))
	scans := worker.NewReceiptWorker(receipts)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return broker.ConsumeReceiptScans(gctx, scans.HandleScan)
	})

	if cfg.SheetsExportEnabled {
		sheets, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exports := worker.NewExportWorker(store, sheets)
		g.Go(func() error {
			return broker.ConsumeExpenseExports(gctx, cfg.AMQPExportQueue, exports.HandleExport)
		})
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}

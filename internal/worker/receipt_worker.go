// Package worker runs the background jobs: receipt OCR and spreadsheet
// export, fed either by RabbitMQ or by an in-process queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/core"
	"spendlens/internal/services"
)

// ReceiptProcessor records the expenses found in a receipt image.
type ReceiptProcessor interface {
	ProcessImage(ctx context.Context, userID int64, image []byte) (services.ReceiptResult, error)
}

// ReceiptWorker handles receipt scan jobs.
type ReceiptWorker struct {
	receipts ReceiptProcessor
}

func NewReceiptWorker(receipts ReceiptProcessor) *ReceiptWorker {
	return &ReceiptWorker{receipts: receipts}
}

// HandleScan processes one job. Jobs that can never succeed are reported as
// amqp.ErrPoison so they are dropped rather than retried; an unreadable
// receipt is logged and acknowledged.
func (w *ReceiptWorker) HandleScan(ctx context.Context, msg *amqp.ReceiptScanMessage) error {
	if msg.UserID <= 0 || len(msg.Image) == 0 {
		return fmt.Errorf("%w: job %s has no user or image", amqp.ErrPoison, msg.JobID)
	}

	start := time.Now()
	res, err := w.receipts.ProcessImage(ctx, msg.UserID, msg.Image)
	switch {
	case errors.Is(err, services.ErrNothingParsed):
		slog.WarnContext(ctx, "Receipt unreadable, nothing recorded",
			"job_id", msg.JobID, "user_id", msg.UserID)
		return nil
	case errors.Is(err, core.ErrInvalidUser):
		return fmt.Errorf("%w: %v", amqp.ErrPoison, err)
	case err != nil:
		return fmt.Errorf("process receipt %s: %w", msg.JobID, err)
	}

	slog.InfoContext(ctx, "Receipt processed",
		"job_id", msg.JobID,
		"user_id", msg.UserID,
		"items", len(res.Expenses),
		"fallback", res.Fallback,
		"duration", time.Since(start))
	return nil
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendlens/internal/amqp"
	"spendlens/internal/core"
	"spendlens/internal/sheets"
	"spendlens/internal/storage"
)

// ExpenseReader is the part of the store the export worker needs.
type ExpenseReader interface {
	Get(ctx context.Context, id, userID int64) (core.Expense, error)
}

// ExportWorker mirrors stored expenses into a spreadsheet.
type ExportWorker struct {
	store    ExpenseReader
	exporter sheets.ExpenseExporter
}

func NewExportWorker(store ExpenseReader, exporter sheets.ExpenseExporter) *ExportWorker {
	return &ExportWorker{store: store, exporter: exporter}
}

// HandleExport appends the announced expense. An expense deleted before the
// event arrives is skipped.
func (w *ExportWorker) HandleExport(ctx context.Context, msg *amqp.ExpenseExportMessage) error {
	e, err := w.store.Get(ctx, msg.ID, msg.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Expense gone before export, skipping",
			"id", msg.ID, "user_id", msg.UserID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	ref, err := w.exporter.Append(ctx, e)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Expense exported",
		"id", e.ID,
		"sheets_ref", ref,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return nil
}

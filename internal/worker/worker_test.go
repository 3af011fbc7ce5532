package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/core"
	"spendlens/internal/services"
	"spendlens/internal/sheets/memory"
	"spendlens/internal/storage"
)

type stubReceipts struct {
	res services.ReceiptResult
	err error
}

func (s stubReceipts) ProcessImage(context.Context, int64, []byte) (services.ReceiptResult, error) {
	return s.res, s.err
}

func TestHandleScan(t *testing.T) {
	msg := amqp.NewReceiptScanMessage(1, "r.jpg", []byte{1, 2, 3})
	ctx := context.Background()

	tests := []struct {
		name       string
		receipts   stubReceipts
		msg        *amqp.ReceiptScanMessage
		wantErr    bool
		wantPoison bool
	}{
		{name: "processed", receipts: stubReceipts{res: services.ReceiptResult{Expenses: []core.Expense{{}}}}, msg: msg},
		{name: "unreadable receipt is acknowledged", receipts: stubReceipts{err: services.ErrNothingParsed}, msg: msg},
		{name: "storage failure is retried", receipts: stubReceipts{err: errors.New("db locked")}, msg: msg, wantErr: true},
		{name: "missing image is poison", msg: amqp.NewReceiptScanMessage(1, "", nil), wantErr: true, wantPoison: true},
		{name: "missing user is poison", msg: amqp.NewReceiptScanMessage(0, "", []byte{1}), wantErr: true, wantPoison: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewReceiptWorker(tt.receipts).HandleScan(ctx, tt.msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, amqp.ErrPoison) != tt.wantPoison {
				t.Errorf("poison = %v, want %v", errors.Is(err, amqp.ErrPoison), tt.wantPoison)
			}
		})
	}
}

func TestHandleExport(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	e, err := store.Insert(ctx, core.Expense{
		UserID:      4,
		Description: "internet bill",
		Amount:      core.Money{Cents: 350000},
		Category:    core.CategoryHousing,
		SpentAt:     time.Date(2025, 2, 1, 10, 0, 0, 0, time.Local),
	})
	if err != nil {
		t.Fatal(err)
	}
	sink := memory.New()
	w := NewExportWorker(store, sink)

	if err := w.HandleExport(ctx, amqp.NewExpenseExportMessage(e.ID, 4)); err != nil {
		t.Fatalf("HandleExport: %v", err)
	}
	if rows := sink.Rows(); len(rows) != 1 || rows[0][3] != "internet bill" {
		t.Errorf("rows = %v", rows)
	}

	// a deleted expense is skipped, not retried
	if err := w.HandleExport(ctx, amqp.NewExpenseExportMessage(999, 4)); err != nil {
		t.Errorf("missing expense: err = %v", err)
	}
	if len(sink.Rows()) != 1 {
		t.Error("missing expense should not be exported")
	}
}

func TestLocalQueueProcessesAndDrains(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	q := NewLocalQueue(func(_ context.Context, msg *amqp.ReceiptScanMessage) error {
		mu.Lock()
		seen = append(seen, msg.JobID)
		mu.Unlock()
		return nil
	}, 2, 4)

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 3; i++ {
		if err := q.PublishReceiptScan(ctx, amqp.NewReceiptScanMessage(1, "", []byte{1})); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Errorf("processed %d jobs, want 3", len(seen))
	}
	if err := q.PublishReceiptScan(context.Background(), amqp.NewReceiptScanMessage(1, "", []byte{1})); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("publish after stop: err = %v", err)
	}
}

func TestLocalQueueFull(t *testing.T) {
	q := NewLocalQueue(func(context.Context, *amqp.ReceiptScanMessage) error { return nil }, 1, 1)
	ctx := context.Background()
	if err := q.PublishReceiptScan(ctx, amqp.NewReceiptScanMessage(1, "", []byte{1})); err != nil {
		t.Fatal(err)
	}
	if err := q.PublishReceiptScan(ctx, amqp.NewReceiptScanMessage(1, "", []byte{1})); !errors.Is(err, ErrQueueFull) {
		t.Errorf("err = %v, want ErrQueueFull", err)
	}
}

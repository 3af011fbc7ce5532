package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"spendlens/internal/amqp"
)

var (
	ErrQueueFull   = errors.New("receipt queue is full")
	ErrQueueClosed = errors.New("receipt queue is not running")
)

// LocalQueue runs receipt jobs on a fixed number of goroutines when no
// broker is configured. It has the same publish method as the AMQP client.
type LocalQueue struct {
	handler func(context.Context, *amqp.ReceiptScanMessage) error
	workers int
	jobs    chan *amqp.ReceiptScanMessage

	mu      sync.RWMutex
	running bool
}

func NewLocalQueue(handler func(context.Context, *amqp.ReceiptScanMessage) error, workers, capacity int) *LocalQueue {
	if workers < 1 {
		workers = 1
	}
	if capacity < 1 {
		capacity = 1
	}
	return &LocalQueue{
		handler: handler,
		workers: workers,
		jobs:    make(chan *amqp.ReceiptScanMessage, capacity),
		running: true,
	}
}

// PublishReceiptScan enqueues msg without blocking.
func (q *LocalQueue) PublishReceiptScan(ctx context.Context, msg *amqp.ReceiptScanMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run processes jobs until ctx is cancelled, then drains what was queued.
// Jobs published before Run wait in the buffer. Run must be called once.
func (q *LocalQueue) Run(ctx context.Context) error {
	g := new(errgroup.Group)
	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			for msg := range q.jobs {
				// jobs outlive the request that queued them
				if err := q.handler(context.WithoutCancel(ctx), msg); err != nil {
					slog.ErrorContext(ctx, "Receipt job failed", "job_id", msg.JobID, "error", err)
				}
			}
			return nil
		})
	}

	<-ctx.Done()
	q.mu.Lock()
	q.running = false
	close(q.jobs)
	q.mu.Unlock()
	return g.Wait()
}

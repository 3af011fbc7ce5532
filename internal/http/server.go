// Package http exposes the expense API over JSON.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/analytics"
	"spendlens/internal/assistant"
	"spendlens/internal/classify"
	"spendlens/internal/core"
	applog "spendlens/internal/log"
	"spendlens/internal/middleware/ratelimit"
	"spendlens/internal/middleware/security"
	"spendlens/internal/middleware/trace"
	"spendlens/internal/ml"
	"spendlens/internal/services"
)

// Expenses is the expense workflow the API drives.
type Expenses interface {
	AddFromText(ctx context.Context, userID int64, raw, backdate string) ([]core.Expense, error)
	Update(ctx context.Context, userID, id int64, description string, amount core.Money, category string) (core.Expense, error)
	Delete(ctx context.Context, userID, id int64) error
	Get(ctx context.Context, userID, id int64) (core.Expense, error)
	List(ctx context.Context, userID int64, month string) ([]core.Expense, error)
	ResetAccount(ctx context.Context, userID int64) (int64, error)
	History(ctx context.Context, userID int64) ([]services.CategoryHistory, error)
}

type Receipts interface {
	ProcessText(ctx context.Context, userID int64, text string) (services.ReceiptResult, error)
}

type Classifier interface {
	Predict(ctx context.Context, description string) classify.Prediction
	Retrain(ctx context.Context) (*ml.Artifact, error)
	Info() classify.Info
}

type Dashboard interface {
	Summary(ctx context.Context, userID int64) (analytics.Summary, error)
}

type Assistant interface {
	Reply(ctx context.Context, userID int64, username, message string) (assistant.Reply, error)
}

// ReceiptQueue accepts OCR jobs. Both the broker client and the in-process
// queue implement it.
type ReceiptQueue interface {
	PublishReceiptScan(ctx context.Context, msg *amqp.ReceiptScanMessage) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheStats is reported on /metrics.
type CacheStats interface {
	Size() int
	Stats() (hits, misses uint64)
}

// Deps are the services behind the routes. Queue, Cache and Store may be nil.
type Deps struct {
	Expenses   Expenses
	Receipts   Receipts
	Classifier Classifier
	Dashboard  Dashboard
	Assistant  Assistant
	Queue      ReceiptQueue
	Store      Pinger
	Cache      CacheStats

	UploadMaxBytes     int64
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	deps     Deps
	log      *applog.Logger
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector
	started  time.Time

	shutdownOnce sync.Once
}

const defaultUploadMaxBytes = 10 << 20

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.UploadMaxBytes <= 0 {
		deps.UploadMaxBytes = defaultUploadMaxBytes
	}
	s := &Server{
		deps:     deps,
		log:      applog.NewLogger(applog.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		tracer:   trace.NewMiddleware(),
		detector: security.NewDetector(),
		started:  time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/parse", s.handleParse)
	mux.HandleFunc("POST /api/classify", s.handleClassify)
	mux.HandleFunc("POST /api/expenses", s.withUser(s.handleCreateExpenses))
	mux.HandleFunc("GET /api/expenses", s.withUser(s.handleListExpenses))
	mux.HandleFunc("GET /api/expenses/history", s.withUser(s.handleHistory))
	mux.HandleFunc("GET /api/expenses/{id}", s.withUser(s.handleGetExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.withUser(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withUser(s.handleDeleteExpense))
	mux.HandleFunc("DELETE /api/account/expenses", s.withUser(s.handleResetAccount))
	mux.HandleFunc("POST /api/receipts", s.withUser(s.handleReceiptUpload))
	mux.HandleFunc("POST /api/receipts/text", s.withUser(s.handleReceiptText))
	mux.HandleFunc("GET /api/summary", s.withUser(s.handleSummary))
	mux.HandleFunc("GET /api/chart-data", s.withUser(s.handleChartData))
	mux.HandleFunc("POST /api/chat", s.withUser(s.handleChat))
	mux.HandleFunc("POST /api/admin/retrain", s.handleRetrain)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	})(h)
	h = s.detector.Middleware(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = applog.Middleware(s.log, trace.FromRequest)(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops background goroutines and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

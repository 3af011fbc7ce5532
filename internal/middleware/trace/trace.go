// Package trace assigns every request an ID that follows it through logs,
// responses and queued jobs.
package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"

	// HeaderRequestID is read from upstream proxies and echoed on responses.
	HeaderRequestID = "X-Request-ID"
)

// Middleware tags requests with an ID and counts them.
type Middleware struct {
	metrics *Metrics
}

type Metrics struct {
	TotalRequests    int64 `json:"total_requests"`
	InFlight         int64 `json:"in_flight"`
	TotalDurationMic int64 `json:"-"`
}

func NewMiddleware() *Middleware {
	return &Middleware{metrics: &Metrics{}}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := incomingID(r)
		if requestID == "" {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		atomic.AddInt64(&m.metrics.TotalRequests, 1)
		atomic.AddInt64(&m.metrics.InFlight, 1)
		defer func() {
			atomic.AddInt64(&m.metrics.InFlight, -1)
			atomic.AddInt64(&m.metrics.TotalDurationMic, time.Since(start).Microseconds())
		}()

		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), requestID)))
	})
}

// incomingID accepts an upstream ID only when it is a UUID.
func incomingID(r *http.Request) string {
	id := r.Header.Get(HeaderRequestID)
	if _, err := uuid.Parse(id); err != nil {
		return ""
	}
	return id
}

func GenerateRequestID() string {
	return uuid.NewString()
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID returns the ID stored by the middleware, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// FromRequest is GetRequestID for handlers holding only the request.
func FromRequest(r *http.Request) string {
	return GetRequestID(r.Context())
}

// Snapshot is the metrics view exported on /metrics.
type Snapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	InFlight          int64   `json:"in_flight"`
	AverageDurationMs float64 `json:"average_duration_ms"`
}

func (m *Middleware) GetMetrics() Snapshot {
	total := atomic.LoadInt64(&m.metrics.TotalRequests)
	s := Snapshot{
		TotalRequests: total,
		InFlight:      atomic.LoadInt64(&m.metrics.InFlight),
	}
	if total > 0 {
		s.AverageDurationMs = float64(atomic.LoadInt64(&m.metrics.TotalDurationMic)) / float64(total) / 1000
	}
	return s
}

package http

import (
	"context"
	"net/http"
	"time"

	applog "spendlens/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady checks the store; the classifier trains lazily and never
// blocks readiness.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
			writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"model":  s.deps.Classifier.Info(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"requests":       s.tracer.GetMetrics(),
		"rate_limit":     s.limiter.GetMetrics(),
		"suspicious":     s.detector.SuspiciousCount(),
		"model":          s.deps.Classifier.Info(),
	}
	if s.deps.Cache != nil {
		hits, misses := s.deps.Cache.Stats()
		out["classify_cache"] = map[string]any{
			"size":   s.deps.Cache.Size(),
			"hits":   hits,
			"misses": misses,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleRetrain refits the classifier from the corpus. Predictions wait
// while it runs.
func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Classifier.Retrain(r.Context())
	if err != nil {
		fail(w, r, applog.OpTrain, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":       a.Kind,
		"examples":   a.Examples,
		"trained_at": a.TrainedAt,
	})
}

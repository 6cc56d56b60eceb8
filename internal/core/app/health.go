package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"tsresolve/internal/core/errors"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// HealthService tracks the outcome of the most recent run so watch mode can
// expose it next to the metrics endpoint.
type HealthService struct {
	analyzer *Analyzer

	mu      sync.RWMutex
	last    *Report
	lastErr error
	lastAt  time.Time
}

func NewHealthService(a *Analyzer) *HealthService {
	return &HealthService{analyzer: a}
}

// Record stores the result of a run.
func (s *HealthService) Record(report *Report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAt = time.Now().UTC()
	s.lastErr = err
	if err == nil {
		s.last = report
	}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if s.analyzer == nil || s.analyzer.parser == nil {
		status.Status = "degraded"
		status.Components["parser"] = "missing"
	} else {
		status.Components["parser"] = "ok"
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.lastErr != nil:
		status.Status = "degraded"
		status.Components["analysis"] = "failed: " + errors.Message(s.lastErr)
	case s.last == nil:
		status.Components["analysis"] = "pending"
	default:
		status.Components["analysis"] = fmt.Sprintf("ok (%d modules, %d diagnostics, %d failures)",
			len(s.last.Modules), len(s.last.Diagnostics), len(s.last.Failures))
		if len(s.last.Failures) > 0 {
			status.Status = "degraded"
		}
	}
	if !s.lastAt.IsZero() {
		status.Components["last_run"] = s.lastAt.Format(time.RFC3339)
	}
	return status
}

// ServeHTTP writes the current status as JSON. A degraded status answers 503.
func (s *HealthService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := s.Check(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if status.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

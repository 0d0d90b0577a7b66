// Package health exposes liveness and readiness endpoints. Readiness checks
// run on demand with a per-check timeout; a stopping server flips readiness
// off before draining.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// CheckFunc probes one dependency. It returns nil when healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Service tracks readiness checks and the overall ready flag.
type Service struct {
	ready  atomic.Bool
	checks []check
}

// New returns a Service that is not ready until SetReady(true).
func New() *Service {
	return &Service{}
}

// AddReadinessCheck registers a named dependency probe with its timeout.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.checks = append(s.checks, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the overall readiness flag.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// LiveEndpoint always answers 200 while the process runs.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ReadyEndpoint runs every readiness check and answers 200 only when the
// service is ready and all checks pass. The body reports per-check status.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	results := make(map[string]string, len(s.checks))

	if !s.ready.Load() {
		status = http.StatusServiceUnavailable
	}

	for _, c := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		err := c.fn(ctx)
		cancel()
		if err != nil {
			status = http.StatusServiceUnavailable
			results[c.name] = err.Error()
		} else {
			results[c.name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(results)
}

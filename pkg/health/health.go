// Package health implements Kubernetes-style liveness and readiness probes.
//
// Checks are grouped into two probes. Each probe runs its checks in a single
// background goroutine at a fixed interval; a check flips to unhealthy only
// after failing several consecutive runs, so a single slow dependency call
// does not bounce the pod.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFailureThreshold is the number of consecutive failures before a
// check is reported unhealthy.
const DefaultFailureThreshold = 3

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	// written by the probe goroutine, read by HTTP handlers
	failing atomic.Bool
	lastErr atomic.Pointer[error]

	// touched only by the probe goroutine
	consecutiveFails int
}

func (c *check) observe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)
	c.lastErr.Store(&err)

	if err != nil {
		c.consecutiveFails++
		if c.consecutiveFails >= DefaultFailureThreshold {
			c.failing.Store(true)
		}
		return
	}
	c.consecutiveFails = 0
	c.failing.Store(false)
}

// probe is a named group of checks sharing one runner goroutine.
type probe struct {
	mu     sync.RWMutex
	checks []*check
}

func (p *probe) add(name string, timeout time.Duration, fn CheckFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checks = append(p.checks, &check{name: name, timeout: timeout, fn: fn})
}

func (p *probe) snapshot() []*check {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*check, len(p.checks))
	copy(out, p.checks)
	return out
}

func (p *probe) failures() map[string]string {
	var failures map[string]string
	for _, c := range p.snapshot() {
		if !c.failing.Load() {
			continue
		}
		if failures == nil {
			failures = make(map[string]string)
		}
		msg := "check failed"
		if errp := c.lastErr.Load(); errp != nil && *errp != nil {
			msg = (*errp).Error()
		}
		failures[c.name] = msg
	}
	return failures
}

func (p *probe) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for _, c := range p.snapshot() {
		c.observe(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, c := range p.snapshot() {
				c.observe(ctx)
			}
		}
	}
}

// Service tracks the health of a running process and serves the probe
// endpoints. The zero value is not usable; call New.
type Service struct {
	ready atomic.Bool

	liveness  probe
	readiness probe

	stopOnce sync.Once
	cancel   context.CancelFunc
}

// New returns a Service in the not-ready state. Call SetReady(true) once
// startup has finished.
func New() *Service {
	return &Service{}
}

// AddLivenessCheck registers a check answering "is this process broken".
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.liveness.add(name, timeout, fn)
}

// AddReadinessCheck registers a check answering "can this process serve
// traffic right now", such as a dependency ping.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.readiness.add(name, timeout, fn)
}

// Start launches the probe runners. Checks registered after Start are not
// picked up until the next interval tick of their probe.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.liveness.run(ctx, interval)
	go s.readiness.run(ctx, interval)
}

// Stop cancels the probe runners. Safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// SetReady flips the manual readiness gate. Flip it to false at the start of
// graceful shutdown so load balancers drain the instance.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness check
// is passing.
func (s *Service) IsReady() bool {
	return s.ready.Load() && len(s.readiness.failures()) == 0
}

type probeStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves the liveness probe. 200 while all liveness checks
// pass, 503 with per-check detail otherwise.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeProbe(w, s.liveness.failures())
}

// ReadyEndpoint serves the readiness probe. The manual gate counts as a
// failing check while closed.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := s.readiness.failures()
	if !s.ready.Load() {
		if failures == nil {
			failures = make(map[string]string)
		}
		failures["startup"] = "service is not ready"
	}
	writeProbe(w, failures)
}

func writeProbe(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	status := probeStatus{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		status.Status = "unhealthy"
		status.Checks = failures
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

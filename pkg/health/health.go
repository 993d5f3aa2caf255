// Package health runs preflight checks before a pipeline run: input tables
// are readable, the output directory is writable and enabled sinks answer.
package health

import (
	"context"
	"time"
)

// NewHealthChecker creates a new health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

// RegisterCheck registers a check. Registering a name twice replaces it.
func (hc *HealthChecker) RegisterCheck(name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	for i, c := range hc.checks {
		if c.name == name {
			hc.checks[i].fn = check
			return
		}
	}
	hc.checks = append(hc.checks, namedCheck{name: name, fn: check})
}

// Check performs all checks.
func (hc *HealthChecker) Check(ctx context.Context) Response {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	response := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make([]Check, 0, len(hc.checks)),
	}

	for _, c := range hc.checks {
		start := time.Now()
		check := c.fn(ctx)
		check.Name = c.name
		check.Duration = time.Since(start)
		check.LastChecked = start

		response.Checks = append(response.Checks, check)

		// Worst status wins
		if check.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		} else if check.Status == StatusDegraded && response.Status != StatusUnhealthy {
			response.Status = StatusDegraded
		}
	}

	return response
}

// Healthy reports whether no check failed.
func (r Response) Healthy() bool {
	return r.Status != StatusUnhealthy
}

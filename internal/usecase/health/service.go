// Package health reports the liveness of a running scan: store reachability and driver state.
package health

import (
	"context"
	"time"
)

// DefaultPingTimeout bounds the database probe of one health check.
const DefaultPingTimeout = 2 * time.Second

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report is the outcome of one health check.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Scan   string // driver state; empty when no scan is attached
}

// Service probes the store and reads the driver state.
type Service struct {
	db          DBPinger
	scan        ScanProgress
	pingTimeout time.Duration
}

// New creates a Service. scan can be nil.
func New(db DBPinger, scan ScanProgress) *Service {
	return &Service{db: db, scan: scan, pingTimeout: DefaultPingTimeout}
}

// WithPingTimeout overrides DefaultPingTimeout.
func (s *Service) WithPingTimeout(d time.Duration) *Service {
	if d > 0 {
		s.pingTimeout = d
	}
	return s
}

// Check runs the probes. A failing probe degrades the report.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Status: Healthy, Checks: map[string]CheckResult{}}

	r.Checks["database"] = s.probe(ctx, s.db.Ping)
	for _, res := range r.Checks {
		if res != CheckOK {
			r.Status = Degraded
		}
	}

	if s.scan != nil {
		r.Scan = s.scan.State().String()
	}
	return r
}

func (s *Service) probe(ctx context.Context, fn func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.pingTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}

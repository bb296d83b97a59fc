package operations

import (
	"sync"
	"time"

	"snapcli/pkg/contracts/domain"
)

// RunState collects the results of one run while its groups execute. It is
// the only state shared between group workers.
type RunState struct {
	mu     sync.RWMutex
	report domain.RunReport
	done   bool
}

// NewRunState creates a run with every group pending, in the given order.
func NewRunState(id string, kind domain.RunKind, dryRun bool, groups []string, started time.Time) *RunState {
	results := make([]domain.GroupResult, len(groups))
	for i, name := range groups {
		results[i] = domain.GroupResult{Group: name, Status: domain.GroupStatusPending}
	}
	return &RunState{
		report: domain.RunReport{
			ID:        id,
			Kind:      kind,
			DryRun:    dryRun,
			StartedAt: started,
			Groups:    results,
		},
	}
}

// ID returns the run identifier
func (s *RunState) ID() string {
	return s.report.ID
}

// Start marks group i as running
func (s *RunState) Start(i int, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report.Groups[i].Status = domain.GroupStatusRunning
	s.report.Groups[i].StartedAt = at
}

// Finish stores the result of group i. An empty result name keeps the
// registered one.
func (s *RunState) Finish(i int, result domain.GroupResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if result.Group == "" {
		result.Group = s.report.Groups[i].Group
	}
	s.report.Groups[i] = result
}

// Complete marks the run as finished
func (s *RunState) Complete(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report.CompletedAt = &at
	s.done = true
}

// Done reports whether Complete was called
func (s *RunState) Done() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done
}

// Snapshot returns a copy of the report that is safe to read while the run
// continues.
func (s *RunState) Snapshot() domain.RunReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.report
	out.Groups = append([]domain.GroupResult(nil), s.report.Groups...)
	if s.report.CompletedAt != nil {
		at := *s.report.CompletedAt
		out.CompletedAt = &at
	}
	return out
}

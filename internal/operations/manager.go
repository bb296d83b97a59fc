package operations

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"snapcli/internal/infrastructure"
	"snapcli/pkg/contracts/domain"
)

// Unit is one group's worth of work. Run must not panic, but a panic is
// contained and reported as a failed group.
type Unit struct {
	Name string
	Run  func(ctx context.Context) domain.GroupResult
}

// Manager runs units with bounded concurrency and keeps the report of the
// run in progress for status queries.
type Manager struct {
	limit   int
	logger  *slog.Logger
	tracer  *GroupTracer
	metrics *infrastructure.PipelineMetrics
	now     func() time.Time

	mu      sync.RWMutex
	current *RunState
}

// Option configures a Manager
type Option func(*Manager)

// WithTracer sets the tracer used for group spans
func WithTracer(tracer *GroupTracer) Option {
	return func(m *Manager) { m.tracer = tracer }
}

// WithMetrics sets the pipeline instruments
func WithMetrics(metrics *infrastructure.PipelineMetrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithClock replaces the clock used for timestamps
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager running at most limit units at once.
func NewManager(limit int, logger *slog.Logger, opts ...Option) *Manager {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		limit:  limit,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tracer == nil {
		m.tracer = NewGroupTracer(nil)
	}
	return m
}

// Status returns a snapshot of the current or last run. ok is false before
// the first run starts.
func (m *Manager) Status() (domain.RunReport, bool) {
	m.mu.RLock()
	state := m.current
	m.mu.RUnlock()
	if state == nil {
		return domain.RunReport{}, false
	}
	return state.Snapshot(), true
}

// Run executes every unit and returns the completed report, sorted by group
// name. A failing unit never stops its siblings. Once ctx is cancelled, units
// that have not started are recorded as skipped; running units finish.
func (m *Manager) Run(ctx context.Context, kind domain.RunKind, dryRun bool, units []Unit) *domain.RunReport {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}

	state := NewRunState(infrastructure.GenerateTraceID(), kind, dryRun, names, m.now())
	m.mu.Lock()
	m.current = state
	m.mu.Unlock()

	ctx = infrastructure.WithTraceID(ctx, state.ID())
	m.logRunStart(ctx, state, len(units))

	var g errgroup.Group
	g.SetLimit(m.limit)
	for i, u := range units {
		i, u := i, u
		g.Go(func() error {
			state.Finish(i, m.runUnit(ctx, state, i, u))
			return nil
		})
	}
	_ = g.Wait()

	state.Complete(m.now())
	report := state.Snapshot()
	report.SortGroups()
	m.logRunComplete(ctx, &report)
	return &report
}

func (m *Manager) runUnit(ctx context.Context, state *RunState, i int, u Unit) domain.GroupResult {
	kind := state.report.Kind
	ctx = infrastructure.WithGroup(ctx, u.Name)

	if err := ctx.Err(); err != nil {
		result := domain.GroupResult{
			Group:  u.Name,
			Status: domain.GroupStatusSkipped,
			Error:  fmt.Sprintf("run cancelled before group started: %v", err),
		}
		m.metrics.RecordSkip(context.WithoutCancel(ctx), "cancelled")
		m.logGroupComplete(ctx, result)
		return result
	}

	started := m.now()
	state.Start(i, started)
	m.metrics.RecordActiveChange(ctx, 1)

	spanCtx, span := m.tracer.StartGroup(ctx, state.ID(), kind, u.Name)
	result := m.safeRun(spanCtx, u)

	if result.Group == "" {
		result.Group = u.Name
	}
	result.StartedAt = started
	result.CompletedAt = m.now()
	result.Duration = result.CompletedAt.Sub(started)

	m.tracer.EndGroup(span, result)
	metricsCtx := context.WithoutCancel(ctx)
	m.metrics.RecordActiveChange(metricsCtx, -1)
	m.metrics.RecordGroup(metricsCtx, kind, result, result.Duration)
	m.logGroupComplete(ctx, result)
	return result
}

func (m *Manager) safeRun(ctx context.Context, u Unit) (result domain.GroupResult) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.ErrorContext(ctx, "Group panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			result = domain.GroupResult{
				Group:     u.Name,
				Status:    domain.GroupStatusFailed,
				Error:     fmt.Sprintf("panic: %v", r),
				ErrorType: "PANIC",
			}
		}
	}()
	return u.Run(ctx)
}

package domain

import (
	"sort"
	"time"
)

// RunKind names the command that produced a run report
type RunKind string

const (
	RunKindReport      RunKind = "report"
	RunKindConsolidate RunKind = "consolidate"
)

// GroupStatus represents the outcome of one group
type GroupStatus string

const (
	GroupStatusPending GroupStatus = "pending"
	GroupStatusRunning GroupStatus = "running"
	GroupStatusSuccess GroupStatus = "success"
	// GroupStatusSkipped: the group had no eligible source.
	GroupStatusSkipped GroupStatus = "skipped"
	GroupStatusFailed  GroupStatus = "failed"
	// GroupStatusDryRun: everything was built but nothing was saved.
	GroupStatusDryRun GroupStatus = "dryrun"
)

// Terminal reports whether the status is final
func (s GroupStatus) Terminal() bool {
	switch s {
	case GroupStatusSuccess, GroupStatusSkipped, GroupStatusFailed, GroupStatusDryRun:
		return true
	}
	return false
}

// GroupCounts summarises what happened inside a group
type GroupCounts struct {
	Snapshots     int `json:"snapshots,omitempty"`
	Sheets        int `json:"sheets"`
	Rows          int `json:"rows"`
	RowsDropped   int `json:"rows_dropped"`
	StaleCells    int `json:"stale_cells"`
	Series        int `json:"series"`
	SeriesSkipped int `json:"series_skipped"`
}

// Add accumulates other into c
func (c *GroupCounts) Add(other GroupCounts) {
	c.Snapshots += other.Snapshots
	c.Sheets += other.Sheets
	c.Rows += other.Rows
	c.RowsDropped += other.RowsDropped
	c.StaleCells += other.StaleCells
	c.Series += other.Series
	c.SeriesSkipped += other.SeriesSkipped
}

// GroupResult is the outcome of processing one group
type GroupResult struct {
	Group       string        `json:"group"`
	Source      string        `json:"source,omitempty"`
	Output      string        `json:"output,omitempty"`
	Status      GroupStatus   `json:"status"`
	Error       string        `json:"error,omitempty"`
	ErrorType   string        `json:"error_type,omitempty"`
	Counts      GroupCounts   `json:"counts"`
	StartedAt   time.Time     `json:"started_at,omitempty"`
	CompletedAt time.Time     `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration_ns,omitempty"`
}

// RunReport collects the per-group results of one run. A run with failed
// groups is still a completed run; callers inspect the statuses.
type RunReport struct {
	ID          string        `json:"id"`
	Kind        RunKind       `json:"kind"`
	DryRun      bool          `json:"dry_run"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Groups      []GroupResult `json:"groups"`
}

// StatusCounts returns how many groups ended in each status
func (r *RunReport) StatusCounts() map[GroupStatus]int {
	counts := make(map[GroupStatus]int)
	for _, g := range r.Groups {
		counts[g.Status]++
	}
	return counts
}

// Totals sums the counts of every group
func (r *RunReport) Totals() GroupCounts {
	var total GroupCounts
	for _, g := range r.Groups {
		total.Add(g.Counts)
	}
	return total
}

// HasFailures reports whether any group failed
func (r *RunReport) HasFailures() bool {
	return r.StatusCounts()[GroupStatusFailed] > 0
}

// SortGroups orders results by group name
func (r *RunReport) SortGroups() {
	sort.SliceStable(r.Groups, func(i, j int) bool {
		return r.Groups[i].Group < r.Groups[j].Group
	})
}

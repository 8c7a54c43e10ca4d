package model

import (
	"sort"
	"time"
)

// Totals holds run-wide counters.  Processed always equals
// Succeeded + Failed + Skipped.
type Totals struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Add folds a single outcome into the totals.
func (t *Totals) Add(outcome Outcome) {
	t.Processed++
	switch {
	case outcome == OutcomeSkipped:
		t.Skipped++
	case outcome.IsFailed():
		t.Failed++
	default:
		t.Succeeded++
	}
}

// SuccessRate returns the share of succeeded among non-skipped services in percent.
func (t *Totals) SuccessRate() float64 {
	executed := t.Succeeded + t.Failed
	if executed == 0 {
		return 100
	}
	return float64(t.Succeeded) * 100 / float64(executed)
}

// Breakdown aggregates outcomes for a category (priority group or framework).
type Breakdown struct {
	Totals
	Timeouts   int   `json:"timeouts"`
	DurationMs int64 `json:"durationMs"`
	SizeBytes  int64 `json:"sizeBytes,omitempty"`
}

// Report is the aggregated result of one orchestration run.
type Report struct {
	RunID          string                 `json:"runId"`
	Task           TaskKind               `json:"task"`
	Workspace      string                 `json:"workspace"`
	Totals         Totals                 `json:"totals"`
	PerService     map[string]*TaskResult `json:"perService"`
	Order          []string               `json:"order"`
	ByPriority     map[int]*Breakdown     `json:"byPriority"`
	ByFramework    map[string]*Breakdown  `json:"byFramework"`
	TotalSizeBytes int64                  `json:"totalSizeBytes,omitempty"`
	Errors         []*ErrorEntry          `json:"errors"`
	Warnings       []string               `json:"warnings,omitempty"`
	Fatal          bool                   `json:"fatal"`
	StartedAt      time.Time              `json:"startedAt"`
	DurationMs     int64                  `json:"durationMs"`
}

// NewReport creates an empty report for the task.
func NewReport(task TaskKind) *Report {
	return &Report{
		Task:        task,
		PerService:  map[string]*TaskResult{},
		ByPriority:  map[int]*Breakdown{},
		ByFramework: map[string]*Breakdown{},
		Errors:      []*ErrorEntry{},
	}
}

// Results returns per-service results in dispatch order followed by any
// services that were never dispatched, in name order.
func (r *Report) Results() []*TaskResult {
	ret := make([]*TaskResult, 0, len(r.PerService))
	seen := map[string]bool{}
	for _, name := range r.Order {
		if result, ok := r.PerService[name]; ok && !seen[name] {
			seen[name] = true
			ret = append(ret, result)
		}
	}
	var rest []string
	for name := range r.PerService {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		ret = append(ret, r.PerService[name])
	}
	return ret
}

// Failed reports whether the run must be considered failed.
func (r *Report) Failed() bool {
	return r.Fatal || r.Totals.Failed > 0
}

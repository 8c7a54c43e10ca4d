package reporter

import (
	"strconv"
	"time"

	"github.com/viant/monoflux/model"
)

// Artifact is the durable JSON snapshot of a run.  Its field set is stable
// across runs; empty collections are written as empty, never omitted.
type Artifact struct {
	RunID          string                       `json:"runId"`
	Task           model.TaskKind               `json:"task"`
	Workspace      string                       `json:"workspace"`
	Successful     int                          `json:"successful"`
	Failed         int                          `json:"failed"`
	Skipped        int                          `json:"skipped"`
	Total          int                          `json:"total"`
	Duration       int64                        `json:"duration" jsonschema:"description=run duration in milliseconds"`
	StartedAt      time.Time                    `json:"startedAt"`
	SuccessRate    float64                      `json:"successRate"`
	TotalSizeBytes int64                        `json:"totalSizeBytes"`
	Fatal          bool                         `json:"fatal"`
	Services       map[string]*model.TaskResult `json:"services"`
	Breakdown      Breakdown                    `json:"breakdown"`
	Errors         []*model.ErrorEntry          `json:"errors"`
	Warnings       []string                     `json:"warnings"`
}

// Breakdown groups category totals by priority and by framework.
type Breakdown struct {
	Priority  map[string]*model.Breakdown `json:"priority"`
	Framework map[string]*model.Breakdown `json:"framework"`
}

// NewArtifact converts a report into its artifact form.  Errors list the
// orchestrator errors followed by every service error in report order.
func NewArtifact(report *model.Report) *Artifact {
	ret := &Artifact{
		RunID:          report.RunID,
		Task:           report.Task,
		Workspace:      report.Workspace,
		Successful:     report.Totals.Succeeded,
		Failed:         report.Totals.Failed,
		Skipped:        report.Totals.Skipped,
		Total:          report.Totals.Processed,
		Duration:       report.DurationMs,
		StartedAt:      report.StartedAt,
		SuccessRate:    report.Totals.SuccessRate(),
		TotalSizeBytes: report.TotalSizeBytes,
		Fatal:          report.Fatal,
		Services:       map[string]*model.TaskResult{},
		Breakdown: Breakdown{
			Priority:  map[string]*model.Breakdown{},
			Framework: map[string]*model.Breakdown{},
		},
		Errors:   []*model.ErrorEntry{},
		Warnings: []string{},
	}
	for name, result := range report.PerService {
		ret.Services[name] = result
	}
	for priority, breakdown := range report.ByPriority {
		ret.Breakdown.Priority[strconv.Itoa(priority)] = breakdown
	}
	for framework, breakdown := range report.ByFramework {
		ret.Breakdown.Framework[framework] = breakdown
	}
	ret.Errors = append(ret.Errors, report.Errors...)
	for _, result := range report.Results() {
		ret.Errors = append(ret.Errors, result.Errors...)
	}
	ret.Warnings = append(ret.Warnings, report.Warnings...)
	return ret
}

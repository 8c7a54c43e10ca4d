package reporter

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/viant/monoflux/model"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiGray   = "\033[90m"
	ansiBold   = "\033[1m"
)

var glyphs = map[model.Outcome]string{
	model.OutcomeSuccess: "✓",
	model.OutcomeFailure: "✗",
	model.OutcomeTimeout: "⏱",
	model.OutcomeSkipped: "○",
}

var colors = map[model.Outcome]string{
	model.OutcomeSuccess: ansiGreen,
	model.OutcomeFailure: ansiRed,
	model.OutcomeTimeout: ansiYellow,
	model.OutcomeSkipped: ansiGray,
}

// Glyph returns the status glyph of an outcome.
func Glyph(outcome model.Outcome) string {
	if glyph, ok := glyphs[outcome]; ok {
		return glyph
	}
	return "?"
}

// renderer keeps the first write error so render code stays linear.
type renderer struct {
	w     io.Writer
	color bool
	err   error
}

func (r *renderer) printf(format string, args ...interface{}) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

func (r *renderer) paint(code, text string) string {
	if !r.color || code == "" {
		return text
	}
	return code + text + ansiReset
}

func (r *renderer) render(report *model.Report) {
	r.printf("%s %s\n", r.paint(ansiBold, "monoflux "+string(report.Task)), report.RunID)
	if report.Workspace != "" {
		r.printf("workspace: %s\n", report.Workspace)
	}
	r.services(report)
	r.frameworks(report)
	r.summary(report)
	r.messages(report)
	r.recommendations(report)
}

func (r *renderer) services(report *model.Report) {
	results := report.Results()
	width := 0
	for _, result := range results {
		if len(result.Service) > width {
			width = len(result.Service)
		}
	}
	byPriority := map[int][]*model.TaskResult{}
	var priorities []int
	for _, result := range results {
		if _, ok := byPriority[result.Priority]; !ok {
			priorities = append(priorities, result.Priority)
		}
		byPriority[result.Priority] = append(byPriority[result.Priority], result)
	}
	sort.Ints(priorities)
	for _, priority := range priorities {
		r.printf("\n%s\n", r.paint(ansiBold, fmt.Sprintf("Priority %d", priority)))
		for _, result := range byPriority[priority] {
			line := fmt.Sprintf("  %s %-*s %8s", r.paint(colors[result.Outcome], Glyph(result.Outcome)), width, result.Service, formatDuration(result.DurationMs))
			if result.SizeBytes != nil {
				line += fmt.Sprintf("  %9s", FormatBytes(*result.SizeBytes))
			}
			if entry := result.FirstError(); entry != nil {
				line += "  " + r.paint(colors[result.Outcome], entry.FirstLine())
			} else if result.Note != "" {
				line += "  " + r.paint(ansiGray, result.Note)
			}
			r.printf("%s\n", line)
		}
	}
}

func (r *renderer) frameworks(report *model.Report) {
	if len(report.ByFramework) == 0 {
		return
	}
	var names []string
	for name := range report.ByFramework {
		names = append(names, name)
	}
	sort.Strings(names)
	r.printf("\n%s\n", r.paint(ansiBold, "By framework"))
	for _, name := range names {
		b := report.ByFramework[name]
		r.printf("  %-10s processed %d  succeeded %d  failed %d  skipped %d  %s\n", name, b.Processed, b.Succeeded, b.Failed, b.Skipped, formatDuration(b.DurationMs))
	}
}

func (r *renderer) summary(report *model.Report) {
	t := report.Totals
	r.printf("\n%s\n", r.paint(ansiBold, "Summary"))
	r.printf("  processed %d  succeeded %s  failed %s  skipped %d\n", t.Processed,
		r.paint(ansiGreen, fmt.Sprint(t.Succeeded)), r.paint(ansiRed, fmt.Sprint(t.Failed)), t.Skipped)
	r.printf("  success rate %.1f%%  duration %s\n", t.SuccessRate(), formatDuration(report.DurationMs))
	if report.TotalSizeBytes > 0 {
		label := "artifacts"
		if report.Task == model.TaskClean {
			label = "freed"
		}
		r.printf("  %s %s\n", label, FormatBytes(report.TotalSizeBytes))
	}
	status := r.paint(ansiGreen, "SUCCESS")
	if report.Failed() {
		status = r.paint(ansiRed, "FAILURE")
	}
	r.printf("  status %s\n", status)
}

func (r *renderer) messages(report *model.Report) {
	if len(report.Warnings) > 0 {
		r.printf("\n%s\n", r.paint(ansiBold, "Warnings"))
		for _, warning := range report.Warnings {
			r.printf("  %s %s\n", r.paint(ansiYellow, "!"), warning)
		}
	}
	if len(report.Errors) > 0 {
		r.printf("\n%s\n", r.paint(ansiBold, "Errors"))
		for _, entry := range report.Errors {
			r.printf("  %s %s: %s\n", r.paint(ansiRed, "✗"), entry.Kind, entry.FirstLine())
		}
	}
}

// Recommendations returns operator hints derived from the report.
func Recommendations(report *model.Report) []string {
	var timeouts, failures, skipped []string
	for _, result := range report.Results() {
		switch result.Outcome {
		case model.OutcomeTimeout:
			timeouts = append(timeouts, result.Service)
		case model.OutcomeFailure:
			failures = append(failures, result.Service)
		case model.OutcomeSkipped:
			skipped = append(skipped, result.Service)
		}
	}
	var ret []string
	if len(timeouts) > 0 {
		ret = append(ret, fmt.Sprintf("%d service(s) timed out (%s): raise --timeout or timeouts.%s in monoflux.yaml", len(timeouts), strings.Join(timeouts, ", "), report.Task))
	}
	if len(failures) > 0 {
		ret = append(ret, fmt.Sprintf("rerun a failed service alone: monoflux %s --only %s", report.Task, failures[0]))
	}
	if len(skipped) > 0 && (report.Task == model.TaskBuild || report.Task == model.TaskTest) {
		ret = append(ret, fmt.Sprintf("%d service(s) skipped: declare a %s script to include them", len(skipped), report.Task))
	}
	return ret
}

func (r *renderer) recommendations(report *model.Report) {
	hints := Recommendations(report)
	if len(hints) == 0 {
		return
	}
	r.printf("\n%s\n", r.paint(ansiBold, "Recommendations"))
	for _, hint := range hints {
		r.printf("  - %s\n", hint)
	}
}

func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return d.String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

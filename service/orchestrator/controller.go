package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"github.com/viant/monoflux/internal/clock"
	"github.com/viant/monoflux/internal/idgen"
	"github.com/viant/monoflux/model"
	"github.com/viant/monoflux/policy"
	"github.com/viant/monoflux/progress"
	"github.com/viant/monoflux/service/aggregator"
	"github.com/viant/monoflux/service/discovery"
	"github.com/viant/monoflux/service/exec"
	"github.com/viant/monoflux/service/executor"
	"github.com/viant/monoflux/service/manifest"
	"github.com/viant/monoflux/service/scheduler"
	"github.com/viant/monoflux/service/task"
	"github.com/viant/monoflux/tracing"
)

// ErrNoWorkspace is returned when the workspace root is missing.
var ErrNoWorkspace = errors.New("workspace root not found")

// Controller runs a task across the workspace.  A controller handles one
// run at a time.
type Controller struct {
	config     Config
	logger     *slog.Logger
	fs         afs.Service
	runner     exec.Runner
	executor   executor.Service
	probe      aggregator.SizeProbe
	probeSet   bool
	reader     *manifest.Reader
	policy     *policy.Policy
	onProgress func(progress.Counters)

	mux         sync.RWMutex
	state       State
	transitions []State
}

// New creates a controller.
func New(options ...Option) *Controller {
	ret := &Controller{config: DefaultConfig(), state: StateInit}
	for _, option := range options {
		option(ret)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.runner == nil {
		ret.runner = exec.NewLocal()
	}
	if ret.executor == nil {
		ret.executor = executor.NewService(ret.runner,
			executor.WithFS(ret.fs),
			executor.WithLogger(ret.logger),
			executor.WithListener(executor.LogListener(ret.logger)))
	}
	if !ret.probeSet {
		ret.probe = aggregator.NewFSProbe(ret.fs)
	}
	if ret.reader == nil {
		ret.reader = manifest.New(ret.fs)
	}
	if ret.config.Concurrency < 1 {
		ret.config.Concurrency = 1
	}
	return ret
}

// State returns the current state.
func (c *Controller) State() State {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.state
}

// Transitions returns the states visited by the last run, in order.
func (c *Controller) Transitions() []State {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return append([]State(nil), c.transitions...)
}

func (c *Controller) transition(state State) {
	c.mux.Lock()
	from := c.state
	c.state = state
	c.transitions = append(c.transitions, state)
	c.mux.Unlock()
	if state.IsTerminal() {
		c.logger.Info("orchestrator: run finished", "from", from, "state", state)
		return
	}
	c.logger.Debug("orchestrator: transition", "from", from, "to", state)
}

func (c *Controller) reset() {
	c.mux.Lock()
	c.state = StateInit
	c.transitions = []State{StateInit}
	c.mux.Unlock()
}

// Run executes strategy against every discovered service and returns the
// finalized report.  Structural failures never escape as errors: they
// produce a fatal report instead.
func (c *Controller) Run(ctx context.Context, strategy task.Strategy) *model.Report {
	c.reset()
	report := model.NewReport(strategy.Kind())
	report.RunID = idgen.NewRunID()
	report.Workspace = url.Path(c.config.Workspace)
	report.StartedAt = clock.Now()

	ctx, span := tracing.StartSpan(ctx, "monoflux "+string(strategy.Kind()), tracing.KindInternal)
	span.WithAttributes(map[string]string{"runId": report.RunID, "workspace": report.Workspace})
	ctx, tracker := progress.WithNewTracker(ctx, report.RunID, string(strategy.Kind()), c.onProgress)

	c.transition(StateDiscover)
	if exists, err := c.workspaceExists(ctx); err != nil || !exists {
		if err == nil {
			err = fmt.Errorf("%w: %q", ErrNoWorkspace, c.config.Workspace)
		}
		return c.finish(span, c.fatal(report, string(StateDiscover), err))
	}
	finder := discovery.New(c.fs, discovery.WithLogger(c.logger), discovery.WithReader(c.reader), discovery.WithAppRoots(c.config.AppRoots...))
	discovered, err := finder.Discover(ctx, c.roots())
	if discovered != nil {
		for _, warning := range discovered.Warnings {
			report.Warnings = append(report.Warnings, warning.Message)
		}
	}
	if err != nil {
		return c.finish(span, c.fatal(report, string(StateDiscover), err))
	}

	c.transition(StateSchedule)
	sched, err := scheduler.New(c.config.Priorities, c.config.DefaultPriority)
	if err != nil {
		return c.finish(span, c.fatal(report, string(StateSchedule), err))
	}
	groups := sched.Schedule(discovered.Services)
	for _, group := range groups {
		c.logger.Debug("orchestrator: scheduled", "priority", group.Priority, "services", group.Names())
	}
	total := len(scheduler.Flatten(groups))
	tracker.Update(progress.Delta{Total: total, Pending: total})
	span.WithInt("services", total)

	c.transition(StateExecute)
	executed := c.execute(ctx, strategy, groups)
	executed.RunID = report.RunID
	executed.Workspace = report.Workspace
	executed.StartedAt = report.StartedAt
	executed.Warnings = append(report.Warnings, executed.Warnings...)
	report = executed

	c.transition(StateValidateCritical)
	c.validateCritical(report)
	return c.finish(span, report)
}

// Abort produces the fatal report of a run that could not start, for
// example because of malformed configuration.
func (c *Controller) Abort(ctx context.Context, kind model.TaskKind, stage string, err error) *model.Report {
	c.reset()
	report := model.NewReport(kind)
	report.RunID = idgen.NewRunID()
	report.Workspace = url.Path(c.config.Workspace)
	report.StartedAt = clock.Now()
	_, span := tracing.StartSpan(ctx, "monoflux "+string(kind), tracing.KindInternal)
	return c.finish(span, c.fatal(report, stage, err))
}

func (c *Controller) fatal(report *model.Report, stage string, err error) *model.Report {
	c.transition(StateFatalAbort)
	fatal := model.NewFatalError(stage, err)
	c.logger.Error("orchestrator: fatal", "stage", stage, "error", err)
	report.Fatal = true
	report.Errors = append(report.Errors, fatal.Entry())
	return report
}

func (c *Controller) finish(span *tracing.Span, report *model.Report) *model.Report {
	c.transition(StateReport)
	report.DurationMs = clock.Since(report.StartedAt)
	var err error
	if report.Failed() {
		c.transition(StateFailure)
		err = fmt.Errorf("%d service(s) failed", report.Totals.Failed)
		if report.Fatal {
			err = errors.New(report.Errors[len(report.Errors)-1].Message)
		}
	} else {
		c.transition(StateSuccess)
	}
	tracing.EndSpan(span, err)
	return report
}

func (c *Controller) workspaceExists(ctx context.Context) (bool, error) {
	if c.config.Workspace == "" {
		return false, nil
	}
	return c.fs.Exists(ctx, c.config.Workspace)
}

// roots resolves root collections against the workspace.
func (c *Controller) roots() []string {
	ret := make([]string, 0, len(c.config.Roots))
	for _, root := range c.config.Roots {
		if !strings.Contains(root, "://") && !path.IsAbs(root) {
			root = url.Join(c.config.Workspace, root)
		}
		ret = append(ret, root)
	}
	return ret
}

func (c *Controller) validateCritical(report *model.Report) {
	for _, name := range c.config.Critical {
		result, ok := report.PerService[name]
		if !ok || !result.Outcome.IsFailed() {
			continue
		}
		warning := fmt.Sprintf("critical service %s %s", name, strings.ReplaceAll(string(result.Outcome), "timeout", "timed out"))
		if entry := result.FirstError(); entry != nil {
			warning += ": " + entry.FirstLine()
		}
		c.logger.Warn("orchestrator: critical service failed", "service", name, "outcome", result.Outcome)
		report.Warnings = append(report.Warnings, warning)
	}
}

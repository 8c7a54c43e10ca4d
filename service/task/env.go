package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/viant/afs"

	"github.com/viant/monoflux/internal/clock"
	"github.com/viant/monoflux/model"
	"github.com/viant/monoflux/service/exec"
)

// Env carries the collaborators available to a strategy for one task run.
// Timeout is the total budget of the task; every invocation gets what is
// left of it.
type Env struct {
	Runner  exec.Runner
	FS      afs.Service
	Logger  *slog.Logger
	Timeout time.Duration
	started time.Time
}

// NewEnv creates a task environment; the timeout budget starts now.
func NewEnv(runner exec.Runner, fs afs.Service, logger *slog.Logger, timeout time.Duration) *Env {
	if fs == nil {
		fs = afs.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Env{Runner: runner, FS: fs, Logger: logger, Timeout: timeout, started: clock.Now()}
}

// Remaining returns the unused part of the budget; zero means unlimited,
// negative means the budget is exhausted.
func (e *Env) Remaining() time.Duration {
	if e.Timeout <= 0 {
		return 0
	}
	left := e.Timeout - clock.Now().Sub(e.started)
	if left <= 0 {
		return -1
	}
	return left
}

// Invocation is the classified outcome of a single external command.
type Invocation struct {
	Output  *exec.Output
	Outcome model.Outcome
	Error   *model.ErrorEntry
}

// OK reports whether the command succeeded.
func (i *Invocation) OK() bool {
	return i.Outcome == model.OutcomeSuccess
}

// Apply folds a failed invocation into the result and reports success.
func (i *Invocation) Apply(result *model.TaskResult) bool {
	if i.OK() {
		return true
	}
	result.Fail(i.Error)
	return false
}

// Invoke runs line in the service directory within the remaining budget.
func (e *Env) Invoke(ctx context.Context, svc *model.ServiceDescriptor, line string, env map[string]string) *Invocation {
	timeout := e.Remaining()
	if timeout < 0 {
		return timedOut(line, e.Timeout, nil)
	}
	if e.Runner == nil {
		return failed(&model.ErrorEntry{Kind: model.ErrorKindExecution, Message: "no process runner configured"}, nil)
	}
	e.Logger.Debug("task: invoking", "service", svc.Name, "command", line, "timeout", timeout)
	output, err := e.Runner.Run(ctx, &exec.Command{Line: line, Dir: svc.Path, Env: env, Timeout: timeout})
	if err != nil {
		return failed(&model.ErrorEntry{Kind: model.ErrorKindExecution, Message: err.Error()}, output)
	}
	switch {
	case output.TimedOut:
		return timedOut(line, e.Timeout, output)
	case output.Canceled:
		return failed(&model.ErrorEntry{Kind: model.ErrorKindExecution, Message: fmt.Sprintf("command %q canceled", line)}, output)
	case output.ExitCode != 0:
		execErr := &model.ExecError{Command: line, ExitCode: output.ExitCode, Output: output.Combined()}
		message := strings.TrimSpace(output.Stderr)
		if message == "" {
			message = strings.TrimSpace(output.Stdout)
		}
		if message == "" {
			message = execErr.Error()
		}
		code := output.ExitCode
		return failed(&model.ErrorEntry{Kind: model.ErrorKindExecution, Message: message, ExitCode: &code}, output)
	}
	return &Invocation{Output: output, Outcome: model.OutcomeSuccess}
}

func timedOut(line string, timeout time.Duration, output *exec.Output) *Invocation {
	err := &model.TimeoutError{Command: line, Timeout: timeout}
	return &Invocation{Output: output, Outcome: model.OutcomeTimeout, Error: &model.ErrorEntry{Kind: model.ErrorKindTimeout, Message: err.Error()}}
}

func failed(entry *model.ErrorEntry, output *exec.Output) *Invocation {
	return &Invocation{Output: output, Outcome: model.OutcomeFailure, Error: entry}
}

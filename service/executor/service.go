package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/viant/afs"

	"github.com/viant/monoflux/internal/clock"
	"github.com/viant/monoflux/model"
	"github.com/viant/monoflux/progress"
	"github.com/viant/monoflux/service/exec"
	"github.com/viant/monoflux/service/task"
	"github.com/viant/monoflux/tracing"
)

// killGrace is how much longer than the task budget the context lives, so
// the process runner's own timer, which kills the process group, fires first.
const killGrace = time.Second

// Listener is invoked once a task settled, whatever its outcome.
type Listener func(svc *model.ServiceDescriptor, result *model.TaskResult)

// LogListener logs every settled task.
func LogListener(logger *slog.Logger) Listener {
	return func(svc *model.ServiceDescriptor, result *model.TaskResult) {
		attrs := []any{"service", svc.Name, "task", result.Task, "outcome", result.Outcome, "durationMs", result.DurationMs}
		if entry := result.FirstError(); entry != nil {
			attrs = append(attrs, "error", entry.FirstLine())
		}
		if result.Outcome.IsFailed() {
			logger.Warn("task settled", attrs...)
			return
		}
		logger.Info("task settled", attrs...)
	}
}

// Option is used to customise the executor instance.
type Option func(*service)

// WithListener sets the listener invoked after every task.  nil disables it.
func WithListener(l Listener) Option {
	return func(s *service) { s.listener = l }
}

// WithLogger sets the logger handed to strategies.
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) { s.logger = logger }
}

// WithFS sets the storage service handed to strategies.
func WithFS(fs afs.Service) Option {
	return func(s *service) { s.fs = fs }
}

// Service runs one task against one service.
type Service interface {
	// Run never returns nil and never panics.  A zero timeout selects the
	// strategy default.
	Run(ctx context.Context, svc *model.ServiceDescriptor, strategy task.Strategy, timeout time.Duration) *model.TaskResult
}

type service struct {
	runner   exec.Runner
	fs       afs.Service
	logger   *slog.Logger
	listener Listener
}

func (s *service) Run(ctx context.Context, svc *model.ServiceDescriptor, strategy task.Strategy, timeout time.Duration) *model.TaskResult {
	if timeout <= 0 {
		timeout = strategy.DefaultTimeout()
	}
	started := clock.Now()
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("%s %s", strategy.Kind(), svc.Name), tracing.KindClient)
	span.WithAttributes(map[string]string{"service": svc.Name, "task": string(strategy.Kind())}).WithInt("priority", svc.Priority)
	progress.UpdateCtx(ctx, progress.Delta{Pending: -1, Running: 1})

	result := s.execute(ctx, svc, strategy, timeout)
	result.StartedAt = started
	result.DurationMs = clock.Since(started)
	if result.Priority == 0 {
		result.Priority = svc.Priority
	}

	delta := progress.Delta{Running: -1}
	switch {
	case result.Outcome == model.OutcomeSkipped:
		delta.Skipped = 1
	case result.Outcome.IsFailed():
		delta.Failed = 1
	default:
		delta.Completed = 1
	}
	progress.UpdateCtx(ctx, delta)
	var spanErr error
	if entry := result.FirstError(); entry != nil && result.Outcome.IsFailed() {
		spanErr = errors.New(entry.FirstLine())
	}
	span.WithAttributes(map[string]string{"outcome": string(result.Outcome)})
	tracing.EndSpan(span, spanErr)
	if s.listener != nil {
		s.listener(svc, result)
	}
	return result
}

// execute isolates the strategy: panics and missing results become failures.
func (s *service) execute(ctx context.Context, svc *model.ServiceDescriptor, strategy task.Strategy, timeout time.Duration) (result *model.TaskResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("executor: strategy panicked", "service", svc.Name, "task", strategy.Kind(), "panic", r, "stack", string(debug.Stack()))
			result = model.NewTaskResult(svc, strategy.Kind()).Fail(&model.ErrorEntry{
				Kind:    model.ErrorKindExecution,
				Message: fmt.Sprintf("%v: %v", ErrPanic, r),
			})
		}
	}()
	taskCtx, cancel := context.WithTimeout(ctx, timeout+killGrace)
	defer cancel()
	env := task.NewEnv(s.runner, s.fs, s.logger, timeout)
	result = strategy.Execute(taskCtx, svc, env)
	if result == nil {
		return model.NewTaskResult(svc, strategy.Kind()).Fail(&model.ErrorEntry{Kind: model.ErrorKindExecution, Message: ErrNoResult.Error()})
	}
	if errors.Is(taskCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil && result.Outcome != model.OutcomeTimeout {
		timeoutErr := &model.TimeoutError{Command: string(strategy.Kind()), Timeout: timeout}
		result.Fail(&model.ErrorEntry{Kind: model.ErrorKindTimeout, Message: timeoutErr.Error()})
	}
	return result
}

// NewService creates a new executor service.
func NewService(runner exec.Runner, opts ...Option) Service {
	s := &service{runner: runner}
	for _, o := range opts {
		o(s)
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

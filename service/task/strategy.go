package task

import (
	"context"
	"time"

	"github.com/viant/monoflux/model"
)

const (
	DefaultBuildTimeout   = 5 * time.Minute
	DefaultTestTimeout    = 10 * time.Minute
	DefaultCleanTimeout   = 2 * time.Minute
	DefaultReleaseTimeout = 15 * time.Minute
)

const (
	NoteNoBuildScript  = "no build script"
	NoteNoTestScript   = "no test script"
	NoteNotPublishable = "not publishable"
	NoteDryRun         = "dry run"
)

// Strategy is the task specific behaviour run against a single service.
type Strategy interface {
	Kind() model.TaskKind
	// DefaultTimeout is the wall-clock budget used when none is configured.
	DefaultTimeout() time.Duration
	// Retry returns the retry policy or nil when the task never retries.
	Retry() *RetryPolicy
	// Execute runs the task.  It never returns nil.
	Execute(ctx context.Context, svc *model.ServiceDescriptor, env *Env) *model.TaskResult
}

// DefaultTimeout returns the default timeout for the task kind.
func DefaultTimeout(kind model.TaskKind) time.Duration {
	switch kind {
	case model.TaskBuild:
		return DefaultBuildTimeout
	case model.TaskTest:
		return DefaultTestTimeout
	case model.TaskClean:
		return DefaultCleanTimeout
	case model.TaskRelease:
		return DefaultReleaseTimeout
	}
	return DefaultBuildTimeout
}

// Build runs the declared build script.
type Build struct{}

func (b *Build) Kind() model.TaskKind          { return model.TaskBuild }
func (b *Build) DefaultTimeout() time.Duration { return DefaultBuildTimeout }
func (b *Build) Retry() *RetryPolicy           { return nil }

func (b *Build) Execute(ctx context.Context, svc *model.ServiceDescriptor, env *Env) *model.TaskResult {
	return runScript(ctx, svc, env, model.TaskBuild, NoteNoBuildScript)
}

// Test runs the declared test script.
type Test struct{}

func (t *Test) Kind() model.TaskKind          { return model.TaskTest }
func (t *Test) DefaultTimeout() time.Duration { return DefaultTestTimeout }
func (t *Test) Retry() *RetryPolicy           { return nil }

func (t *Test) Execute(ctx context.Context, svc *model.ServiceDescriptor, env *Env) *model.TaskResult {
	return runScript(ctx, svc, env, model.TaskTest, NoteNoTestScript)
}

// runScript runs the script declared for kind, skipping when there is none.
func runScript(ctx context.Context, svc *model.ServiceDescriptor, env *Env, kind model.TaskKind, note string) *model.TaskResult {
	result := model.NewTaskResult(svc, kind)
	line, ok := svc.Command(string(kind))
	if !ok {
		return result.Skip(note)
	}
	env.Invoke(ctx, svc, line, nil).Apply(result)
	return result
}

var (
	_ Strategy = (*Build)(nil)
	_ Strategy = (*Test)(nil)
	_ Strategy = (*Clean)(nil)
	_ Strategy = (*Release)(nil)
)

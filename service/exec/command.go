package exec

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// RunnerLocal spawns commands directly through the platform shell.
	RunnerLocal = "local"
	// RunnerShell runs commands through a gosh shell session.
	RunnerShell = "shell"
)

// Command describes a single external invocation.
type Command struct {
	Line    string
	Dir     string
	Env     map[string]string
	Timeout time.Duration
}

// Output captures the result of an invocation.  A non-zero ExitCode is not
// reported as an error by runners; callers decide what it means.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Canceled bool
	Duration time.Duration
	Pid      int
}

// Combined returns stderr and stdout joined, stderr first.
func (o *Output) Combined() string {
	parts := make([]string, 0, 2)
	if text := strings.TrimSpace(o.Stderr); text != "" {
		parts = append(parts, text)
	}
	if text := strings.TrimSpace(o.Stdout); text != "" {
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n")
}

// Runner executes commands.  Run returns an error only when the command
// could not be started.
type Runner interface {
	Run(ctx context.Context, command *Command) (*Output, error)
}

// New creates a runner of the supplied kind with the base environment.
func New(kind string, env map[string]string) (Runner, error) {
	switch kind {
	case "", RunnerLocal:
		return NewLocal(WithEnv(env)), nil
	case RunnerShell:
		return NewShell(WithEnv(env)), nil
	}
	return nil, fmt.Errorf("unsupported runner: %q", kind)
}

// Option customises a runner.
type Option func(o *options)

type options struct {
	env       map[string]string
	waitDelay time.Duration
}

// WithEnv adds base environment variables passed to every command.
func WithEnv(env map[string]string) Option {
	return func(o *options) {
		if o.env == nil {
			o.env = map[string]string{}
		}
		for k, v := range env {
			o.env[k] = v
		}
	}
}

// WithWaitDelay bounds how long output pipes are drained after a process exits.
func WithWaitDelay(delay time.Duration) Option {
	return func(o *options) { o.waitDelay = delay }
}

func newOptions(opts []Option) *options {
	ret := &options{waitDelay: 2 * time.Second}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func mergeEnv(base, extra map[string]string) map[string]string {
	ret := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		ret[k] = v
	}
	for k, v := range extra {
		ret[k] = v
	}
	return ret
}

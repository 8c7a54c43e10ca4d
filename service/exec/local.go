package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"time"
)

// Local runs commands as child processes of the orchestrator.
type Local struct {
	options *options
}

// NewLocal creates a local runner.
func NewLocal(opts ...Option) *Local {
	return &Local{options: newOptions(opts)}
}

// Run starts the command and waits for it to exit, time out or be
// canceled.  On timeout or cancellation the whole process group is killed
// and reaped before Run returns.
func (l *Local) Run(ctx context.Context, command *Command) (*Output, error) {
	cmd := shellCommand(command.Line)
	cmd.Dir = command.Dir
	cmd.Env = environ(mergeEnv(l.options.env, command.Env))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = l.options.waitDelay
	configureCommandProcess(cmd)

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %q: %w", command.Line, err)
	}
	output := &Output{Pid: cmd.Process.Pid}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var timeout <-chan time.Time
	if command.Timeout > 0 {
		timer := time.NewTimer(command.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}
	var err error
	select {
	case err = <-done:
	case <-timeout:
		output.TimedOut = true
		terminateCommandProcess(cmd)
		err = <-done
	case <-ctx.Done():
		output.Canceled = true
		terminateCommandProcess(cmd)
		err = <-done
	}
	output.Duration = time.Since(started)
	output.Stdout = stdout.String()
	output.Stderr = stderr.String()
	switch {
	case output.TimedOut || output.Canceled:
		output.ExitCode = -1
	case err == nil:
	default:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			if errors.Is(err, exec.ErrWaitDelay) {
				return output, nil
			}
			return output, fmt.Errorf("failed to wait for %q: %w", command.Line, err)
		}
		output.ExitCode = exitErr.ExitCode()
	}
	return output, nil
}

func shellCommand(line string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.Command("cmd", "/C", line)
	}
	return exec.Command("/bin/sh", "-c", line)
}

func environ(env map[string]string) []string {
	ret := os.Environ()
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ret = append(ret, k+"="+env[k])
	}
	return ret
}

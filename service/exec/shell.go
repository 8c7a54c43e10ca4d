package exec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
)

// pidWait bounds how long a timed out run waits for the pid file.
const pidWait = time.Second

// Shell runs commands through a gosh session.  Every Run opens its own
// session and closes it afterwards, so concurrent runs never share a
// working directory.  The session shell combines stderr into stdout.
//
// The command runs in a session of its own (setsid when available) and the
// session leader pid is recorded, so a timed out or canceled command is
// killed together with its children before Run returns.
type Shell struct {
	options *options
}

// NewShell creates a gosh backed runner.
func NewShell(opts ...Option) *Shell {
	return &Shell{options: newOptions(opts)}
}

// Run executes the command in a fresh shell session.
func (s *Shell) Run(ctx context.Context, command *Command) (*Output, error) {
	var runnerOptions []runner.Option
	if env := mergeEnv(s.options.env, command.Env); len(env) > 0 {
		runnerOptions = append(runnerOptions, runner.WithEnvironment(env))
	}
	srv, err := gosh.New(ctx, local.New(runnerOptions...))
	if err != nil {
		return nil, fmt.Errorf("failed to open shell session: %w", err)
	}
	defer srv.Close()

	if command.Dir != "" {
		if _, status, err := srv.Run(ctx, "cd "+quote(command.Dir)); err != nil || status != 0 {
			return nil, fmt.Errorf("failed to change directory to %s: status %d, %v", command.Dir, status, err)
		}
	}
	pidDir, err := os.MkdirTemp("", "monoflux-shell")
	if err != nil {
		return nil, fmt.Errorf("failed to create pid directory: %w", err)
	}
	defer os.RemoveAll(pidDir)
	pidFile := filepath.Join(pidDir, "pid")

	timeout := command.Timeout
	if timeout == 0 {
		timeout = time.Minute
	}
	started := time.Now()
	stdout, status, err := srv.Run(ctx, detached(command.Line, pidFile), runner.WithTimeout(int(timeout.Milliseconds())))
	output := &Output{Duration: time.Since(started), ExitCode: status}
	if output.Duration >= timeout {
		output.TimedOut = true
		output.ExitCode = -1
	}
	if ctx.Err() != nil {
		output.Canceled = true
		output.ExitCode = -1
	}
	if output.TimedOut || output.Canceled {
		output.Pid = readPid(pidFile, pidWait)
		killProcessGroup(output.Pid)
	}
	if status == 0 && err == nil && !output.TimedOut && !output.Canceled {
		output.Stdout = stdout
		return output, nil
	}
	if stdout == "" && err != nil {
		stdout = err.Error()
	}
	output.Stderr = stdout
	if output.ExitCode == 0 {
		output.ExitCode = 1
	}
	return output, nil
}

// detached wraps line so it runs as the leader of a new session.  The
// leader writes its pid to pidFile and execs line, so the exit status of
// line is preserved.  Without setsid only the leader pid is known.
func detached(line, pidFile string) string {
	inner := quote(fmt.Sprintf("echo $$ > %s; exec sh -c %s", quote(pidFile), quote(line)))
	return fmt.Sprintf("if command -v setsid >/dev/null 2>&1; then setsid -w sh -c %s </dev/null; else sh -c %s </dev/null; fi", inner, inner)
}

// readPid polls pidFile until it holds a pid or wait elapses.
func readPid(pidFile string, wait time.Duration) int {
	deadline := time.Now().Add(wait)
	for {
		if data, err := os.ReadFile(pidFile); err == nil {
			if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil {
				return pid
			}
		}
		if time.Now().After(deadline) {
			return 0
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func quote(text string) string {
	return "'" + strings.ReplaceAll(text, "'", `'\''`) + "'"
}

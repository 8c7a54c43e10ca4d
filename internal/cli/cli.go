// Package cli implements the monoflux command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"github.com/viant/monoflux"
	"github.com/viant/monoflux/model"
	"github.com/viant/monoflux/progress"
)

// app holds global flags and the exit code of the executed command.
type app struct {
	workspace   string
	configURL   string
	concurrency int
	ci          bool
	only        []string
	skip        []string
	timeout     time.Duration
	noReport    bool
	verbose     bool

	stdout   io.Writer
	stderr   io.Writer
	fs       afs.Service
	exitCode int
}

// Run executes the command line and returns the process exit code: 0 on
// full success, 1 on any failure including usage errors.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, fs: afs.New()}
	cmd := a.command()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return a.exitCode
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "monoflux",
		Short:         "Run build, test, clean and release tasks across a monorepo workspace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&a.workspace, "workspace", "w", ".", "workspace root")
	flags.StringVarP(&a.configURL, "config", "c", "", "config file (default <workspace>/"+monoflux.ConfigFile+")")
	flags.IntVarP(&a.concurrency, "concurrency", "j", 0, "number of concurrent tasks")
	flags.BoolVar(&a.ci, "ci", false, "CI mode, publish failures are fatal")
	flags.StringSliceVar(&a.only, "only", nil, "only run matching services")
	flags.StringSliceVar(&a.skip, "skip", nil, "skip matching services")
	flags.DurationVar(&a.timeout, "timeout", 0, "per service task timeout")
	flags.BoolVar(&a.noReport, "no-report", false, "do not write the JSON artifact")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging and progress")

	root.AddCommand(a.buildCommand(), a.testCommand(), a.cleanCommand(), a.releaseCommand(), a.schemaCommand())
	return root
}

func (a *app) logger() *slog.Logger {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
}

// execute loads the configuration, applies flag overrides and runs the
// task.  Configuration errors end in a fatal report.
func (a *app) execute(cmd *cobra.Command, kind model.TaskKind, run func(ctx context.Context, srv *monoflux.Service) *monoflux.Result) error {
	ctx := cmd.Context()
	logger := a.logger()
	options := []monoflux.Option{monoflux.WithLogger(logger), monoflux.WithOutput(a.stdout), monoflux.WithFS(a.fs)}
	if a.noReport {
		options = append(options, monoflux.WithoutReport())
	}
	if a.verbose {
		options = append(options, monoflux.WithProgress(func(counters progress.Counters) {
			logger.Debug("progress", "done", counters.Done(), "total", counters.Total, "running", counters.Running, "failed", counters.Failed)
		}))
	}
	config, err := a.config(ctx, cmd, kind)
	if err != nil {
		fallback := monoflux.DefaultConfig()
		fallback.Workspace = a.workspaceURL()
		srv := monoflux.New(append(options, monoflux.WithConfig(fallback))...)
		a.exitCode = srv.Abort(ctx, kind, "config", err).ExitCode
		return nil
	}
	srv := monoflux.New(append(options, monoflux.WithConfig(config))...)
	defer func() {
		if err := srv.Close(ctx); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}()
	a.exitCode = run(ctx, srv).ExitCode
	return nil
}

func (a *app) workspaceURL() string {
	if workspace, err := filepath.Abs(a.workspace); err == nil {
		return workspace
	}
	return a.workspace
}

// config loads the config file, when present, and applies flags.
func (a *app) config(ctx context.Context, cmd *cobra.Command, kind model.TaskKind) (*monoflux.Config, error) {
	workspace := a.workspaceURL()
	config := monoflux.DefaultConfig()
	configURL := a.configURL
	if configURL == "" {
		candidate := url.Join(workspace, monoflux.ConfigFile)
		if ok, _ := a.fs.Exists(ctx, candidate); ok {
			configURL = candidate
		}
	}
	if configURL != "" {
		loaded, err := monoflux.LoadConfig(ctx, a.fs, configURL)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	if config.Workspace == "" || a.flagChanged(cmd, "workspace") {
		config.Workspace = workspace
	}
	if a.flagChanged(cmd, "concurrency") {
		config.Concurrency = a.concurrency
	}
	if a.flagChanged(cmd, "ci") {
		ci := a.ci
		config.CI = &ci
	}
	if len(a.only) > 0 {
		config.Policy.AllowList = a.only
	}
	if len(a.skip) > 0 {
		config.Policy.BlockList = append(config.Policy.BlockList, a.skip...)
	}
	if a.timeout > 0 {
		if config.Timeouts == nil {
			config.Timeouts = map[string]monoflux.Duration{}
		}
		config.Timeouts[string(kind)] = monoflux.Duration(a.timeout)
	}
	return config, config.Validate()
}

func (a *app) flagChanged(cmd *cobra.Command, name string) bool {
	flag := cmd.Flags().Lookup(name)
	return flag != nil && flag.Changed
}

package monoflux

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/viant/afs"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/viant/monoflux/model"
	"github.com/viant/monoflux/policy"
	"github.com/viant/monoflux/progress"
	"github.com/viant/monoflux/service/aggregator"
	"github.com/viant/monoflux/service/exec"
	"github.com/viant/monoflux/service/manifest"
	"github.com/viant/monoflux/service/orchestrator"
	"github.com/viant/monoflux/service/reporter"
	"github.com/viant/monoflux/service/task"
	"github.com/viant/monoflux/tracing"
)

// Version is reported as the tracing service version.
const Version = "0.1.0"

// Result is the outcome of one task run.
type Result struct {
	Report      *model.Report
	Transitions []orchestrator.State
	// Artifact is the URL of the JSON artifact, empty when none was written.
	Artifact string
	ExitCode int
}

// CleanOptions selects what the clean task removes.
type CleanOptions struct {
	All    bool
	Deps   bool
	DryRun bool
}

// ReleaseOptions configures one release run.
type ReleaseOptions struct {
	Type      task.ReleaseType
	DryRun    bool
	SkipTests bool
}

// Service runs workspace tasks.
type Service struct {
	config     *Config
	logger     *slog.Logger
	fs         afs.Service
	runner     exec.Runner
	probe      aggregator.SizeProbe
	probeSet   bool
	token      task.TokenSource
	out        io.Writer
	color      *bool
	noReport   bool
	policy     *policy.Policy
	onProgress func(progress.Counters)
	exporter   *exporterSpec
	tracing    bool
}

type exporterSpec struct {
	name     string
	version  string
	exporter sdktrace.SpanExporter
}

// New creates a service.
func New(options ...Option) *Service {
	ret := &Service{out: os.Stdout}
	for _, option := range options {
		option(ret)
	}
	if ret.config == nil {
		ret.config = DefaultConfig()
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	ret.initTracing()
	return ret
}

func (s *Service) initTracing() {
	var err error
	switch {
	case s.exporter != nil && s.exporter.exporter != nil:
		err = tracing.InitWithExporter(s.exporter.name, s.exporter.version, s.exporter.exporter)
	case s.config.Tracing.Enabled:
		err = tracing.Init("monoflux", Version, s.config.Tracing.Output)
	default:
		return
	}
	if err != nil {
		s.logger.Warn("monoflux: tracing disabled", "error", err)
		return
	}
	s.tracing = true
}

// Config returns the service configuration.
func (s *Service) Config() *Config {
	return s.config
}

// Build runs the build task.
func (s *Service) Build(ctx context.Context) *Result {
	return s.Run(ctx, &task.Build{})
}

// Test runs the test task.
func (s *Service) Test(ctx context.Context) *Result {
	return s.Run(ctx, &task.Test{})
}

// Clean runs the clean task.
func (s *Service) Clean(ctx context.Context, options CleanOptions) *Result {
	return s.Run(ctx, &task.Clean{Paths: s.config.Clean, All: options.All, Deps: options.Deps, DryRun: options.DryRun})
}

// Release runs the release task.
func (s *Service) Release(ctx context.Context, options ReleaseOptions) *Result {
	kind, err := task.ParseReleaseType(string(options.Type))
	if err != nil {
		return s.Abort(ctx, model.TaskRelease, "config", err)
	}
	release := &task.Release{
		Type:           kind,
		DryRun:         options.DryRun,
		SkipTests:      options.SkipTests,
		CI:             s.config.IsCI(),
		PublishCommand: s.config.Release.PublishCommand,
		Policy:         s.config.RetryPolicy(),
		Token:          s.token,
		TokenEnv:       task.DefaultTokenEnv,
	}
	if secret := s.config.Release.TokenSecret; secret != nil {
		if release.Token == nil {
			release.Token = task.NewSecretToken(secret.URL, secret.Key)
		}
		if secret.Env != "" {
			release.TokenEnv = secret.Env
		}
	}
	return s.Run(ctx, release)
}

// Run executes strategy across the workspace, renders the console report
// and persists the JSON artifact.  Malformed configuration produces a
// fatal report.
func (s *Service) Run(ctx context.Context, strategy task.Strategy) *Result {
	controller, err := s.controller(strategy.Kind())
	var report *model.Report
	if err != nil {
		report = controller.Abort(ctx, strategy.Kind(), "config", err)
	} else {
		report = controller.Run(ctx, strategy)
	}
	return s.complete(ctx, controller, report)
}

// Abort completes a run that could not start with a fatal report.
func (s *Service) Abort(ctx context.Context, kind model.TaskKind, stage string, err error) *Result {
	controller := orchestrator.New(orchestrator.WithConfig(orchestrator.Config{Workspace: s.config.Workspace}), orchestrator.WithLogger(s.logger))
	return s.complete(ctx, controller, controller.Abort(ctx, kind, stage, err))
}

func (s *Service) complete(ctx context.Context, controller *orchestrator.Controller, report *model.Report) *Result {
	result := &Result{Report: report, Transitions: controller.Transitions(), ExitCode: reporter.ExitCode(report)}
	options := []reporter.Option{reporter.WithFS(s.fs), reporter.WithDir(s.config.Report.Dir)}
	if s.color != nil {
		options = append(options, reporter.WithColor(*s.color))
	}
	srv := reporter.New(options...)
	if !s.noReport {
		URL, err := srv.Persist(ctx, report)
		if err != nil {
			s.logger.Warn("monoflux: report not persisted", "error", err)
		}
		result.Artifact = URL
	}
	if s.out != nil {
		if err := srv.Render(s.out, report); err != nil {
			s.logger.Warn("monoflux: report not rendered", "error", err)
		}
	}
	return result
}

// controller builds an orchestrator for the task kind.  On configuration
// errors the returned controller can still abort the run.
func (s *Service) controller(kind model.TaskKind) (*orchestrator.Controller, error) {
	config := orchestrator.Config{
		Workspace:       s.config.Workspace,
		Roots:           s.config.Roots,
		AppRoots:        s.config.AppRoots,
		Concurrency:     s.config.Concurrency,
		Priorities:      s.config.Priorities,
		DefaultPriority: s.config.DefaultPriority,
		Critical:        s.config.Critical,
		Timeout:         s.config.Timeout(kind),
	}
	options := []orchestrator.Option{
		orchestrator.WithConfig(config),
		orchestrator.WithLogger(s.logger),
		orchestrator.WithFS(s.fs),
		orchestrator.WithReader(manifest.New(s.fs, s.config.Manifests...)),
		orchestrator.WithProgress(s.onProgress),
	}
	if s.probeSet {
		options = append(options, orchestrator.WithProbe(s.probe))
	} else {
		options = append(options, orchestrator.WithProbe(aggregator.NewFSProbe(s.fs, s.config.Artifacts...)))
	}
	filter := s.policy
	if filter == nil {
		filter = policy.FromConfig(&s.config.Policy)
	}
	options = append(options, orchestrator.WithPolicy(filter))

	if err := s.config.Validate(); err != nil {
		return orchestrator.New(options...), err
	}
	runner := s.runner
	if runner == nil {
		var err error
		if runner, err = exec.New(s.config.Runner, nil); err != nil {
			return orchestrator.New(options...), fmt.Errorf("invalid runner: %w", err)
		}
	}
	options = append(options, orchestrator.WithRunner(runner))
	return orchestrator.New(options...), nil
}

// Close flushes pending spans.
func (s *Service) Close(ctx context.Context) error {
	if !s.tracing {
		return nil
	}
	return tracing.Shutdown(ctx)
}

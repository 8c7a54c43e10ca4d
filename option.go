package monoflux

import (
	"io"
	"log/slog"

	"github.com/viant/afs"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/viant/monoflux/policy"
	"github.com/viant/monoflux/progress"
	"github.com/viant/monoflux/service/aggregator"
	"github.com/viant/monoflux/service/exec"
	"github.com/viant/monoflux/service/task"
)

// Option customises the service.
type Option func(s *Service)

// WithConfig sets the configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithFS sets the storage service used for discovery, cleaning and reports.
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithRunner sets the process runner, overriding config.Runner.
func WithRunner(runner exec.Runner) Option {
	return func(s *Service) { s.runner = runner }
}

// WithSizeProbe sets the artifact size probe; nil disables probing.
func WithSizeProbe(probe aggregator.SizeProbe) Option {
	return func(s *Service) {
		s.probe = probe
		s.probeSet = true
	}
}

// WithTokenSource sets the registry token source used by releases.
func WithTokenSource(source task.TokenSource) Option {
	return func(s *Service) { s.token = source }
}

// WithOutput sets the console report writer; nil disables rendering.
func WithOutput(w io.Writer) Option {
	return func(s *Service) { s.out = w }
}

// WithColor forces ANSI colours in the console report on or off.
func WithColor(color bool) Option {
	return func(s *Service) { s.color = &color }
}

// WithoutReport disables the JSON artifact.
func WithoutReport() Option {
	return func(s *Service) { s.noReport = true }
}

// WithPolicy sets the service filter, overriding config.Policy.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithProgress registers a callback for progress counter changes.
func WithProgress(onChange func(progress.Counters)) Option {
	return func(s *Service) { s.onProgress = onChange }
}

// WithTracingExporter configures OpenTelemetry tracing with a custom
// exporter, overriding config.Tracing. The first successful initialisation
// in a process wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		s.exporter = &exporterSpec{name: serviceName, version: serviceVersion, exporter: exporter}
	}
}

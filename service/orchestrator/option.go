package orchestrator

import (
	"log/slog"

	"github.com/viant/afs"

	"github.com/viant/monoflux/policy"
	"github.com/viant/monoflux/progress"
	"github.com/viant/monoflux/service/aggregator"
	"github.com/viant/monoflux/service/exec"
	"github.com/viant/monoflux/service/executor"
	"github.com/viant/monoflux/service/manifest"
)

// Option customises the controller.
type Option func(c *Controller)

// WithConfig sets the configuration.
func WithConfig(config Config) Option {
	return func(c *Controller) { c.config = config }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithFS sets the storage service.
func WithFS(fs afs.Service) Option {
	return func(c *Controller) { c.fs = fs }
}

// WithRunner sets the process runner used by the default executor.
func WithRunner(runner exec.Runner) Option {
	return func(c *Controller) { c.runner = runner }
}

// WithExecutor sets the per-service executor.
func WithExecutor(srv executor.Service) Option {
	return func(c *Controller) { c.executor = srv }
}

// WithProbe sets the artifact size probe; nil disables probing.
func WithProbe(probe aggregator.SizeProbe) Option {
	return func(c *Controller) {
		c.probe = probe
		c.probeSet = true
	}
}

// WithReader sets the manifest reader.
func WithReader(reader *manifest.Reader) Option {
	return func(c *Controller) { c.reader = reader }
}

// WithPolicy sets the service filter.
func WithPolicy(p *policy.Policy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithProgress registers a callback for progress counter changes.
func WithProgress(onChange func(progress.Counters)) Option {
	return func(c *Controller) { c.onProgress = onChange }
}

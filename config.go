package monoflux

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/viant/monoflux/model"
	"github.com/viant/monoflux/policy"
	"github.com/viant/monoflux/service/aggregator"
	"github.com/viant/monoflux/service/exec"
	"github.com/viant/monoflux/service/manifest"
	"github.com/viant/monoflux/service/scheduler"
	"github.com/viant/monoflux/service/task"
)

// ConfigFile is the configuration file probed at the workspace root.
const ConfigFile = "monoflux.yaml"

var validate = validator.New()

// Config is a serialisable representation of the orchestrator
// configuration.  Zero values inherit DefaultConfig through LoadConfig.
type Config struct {
	Workspace       string              `json:"workspace,omitempty" yaml:"workspace,omitempty"`
	Roots           []string            `json:"roots" yaml:"roots" validate:"min=1,dive,required"`
	AppRoots        []string            `json:"appRoots,omitempty" yaml:"appRoots,omitempty"`
	Manifests       []string            `json:"manifests,omitempty" yaml:"manifests,omitempty" validate:"dive,oneof=package.json service.yaml"`
	Concurrency     int                 `json:"concurrency" yaml:"concurrency" validate:"min=1,max=256"`
	CI              *bool               `json:"ci,omitempty" yaml:"ci,omitempty"`
	Runner          string              `json:"runner,omitempty" yaml:"runner,omitempty" validate:"omitempty,oneof=local shell"`
	Priorities      map[string]int      `json:"priorities,omitempty" yaml:"priorities,omitempty" validate:"dive,min=1,max=4"`
	DefaultPriority int                 `json:"defaultPriority" yaml:"defaultPriority" validate:"min=1,max=4"`
	Critical        []string            `json:"critical,omitempty" yaml:"critical,omitempty"`
	Timeouts        map[string]Duration `json:"timeouts,omitempty" yaml:"timeouts,omitempty"`
	Clean           task.CleanPaths     `json:"clean" yaml:"clean"`
	Artifacts       []string            `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Release         ReleaseConfig       `json:"release" yaml:"release"`
	Tracing         TracingConfig       `json:"tracing" yaml:"tracing"`
	Report          ReportConfig        `json:"report" yaml:"report"`
	Policy          policy.Config       `json:"policy" yaml:"policy"`
}

// ReleaseConfig configures the release task.
type ReleaseConfig struct {
	PublishCommand string       `json:"publishCommand,omitempty" yaml:"publishCommand,omitempty"`
	Retries        int          `json:"retries" yaml:"retries" validate:"min=0,max=10"`
	RetryDelay     Duration     `json:"retryDelay" yaml:"retryDelay"`
	RetryType      string       `json:"retryType,omitempty" yaml:"retryType,omitempty" validate:"omitempty,oneof=none fixed exponential"`
	TokenSecret    *TokenSecret `json:"tokenSecret,omitempty" yaml:"tokenSecret,omitempty"`
}

// TokenSecret locates the registry token in a secret store.
type TokenSecret struct {
	URL string `json:"url" yaml:"url" validate:"required"`
	Key string `json:"key,omitempty" yaml:"key,omitempty"`
	Env string `json:"env,omitempty" yaml:"env,omitempty"`
}

// TracingConfig enables OpenTelemetry tracing; an empty Output writes spans to stdout.
type TracingConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Output  string `json:"output,omitempty" yaml:"output,omitempty"`
}

// ReportConfig configures the JSON artifact location, the workspace by default.
type ReportConfig struct {
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// DefaultConfig returns a Config populated with the default values.
func DefaultConfig() *Config {
	publish := task.DefaultPublishRetry()
	return &Config{
		Roots:           []string{"apps", "services", "packages"},
		AppRoots:        []string{"apps"},
		Manifests:       append([]string(nil), manifest.DefaultNames...),
		Concurrency:     4,
		Runner:          exec.RunnerLocal,
		DefaultPriority: scheduler.MaxPriority,
		Clean:           task.DefaultCleanPaths(),
		Artifacts:       append([]string(nil), aggregator.DefaultArtifacts...),
		Release: ReleaseConfig{
			Retries:    publish.MaxRetries,
			RetryDelay: Duration(publish.Delay),
			RetryType:  publish.Type,
		},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config was nil")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for kind, timeout := range c.Timeouts {
		if _, err := model.ParseTaskKind(kind); err != nil {
			return fmt.Errorf("invalid config: timeouts: %w", err)
		}
		if timeout < 0 {
			return fmt.Errorf("invalid config: timeouts.%s must not be negative", kind)
		}
	}
	return nil
}

// IsCI reports whether CI mode is on.  The CI environment variable is
// consulted when the config leaves it unset.
func (c *Config) IsCI() bool {
	if c.CI != nil {
		return *c.CI
	}
	return strings.EqualFold(os.Getenv("CI"), "true")
}

// Timeout returns the configured timeout for the task kind, zero when unset.
func (c *Config) Timeout(kind model.TaskKind) time.Duration {
	return time.Duration(c.Timeouts[string(kind)])
}

// RetryPolicy returns the publish retry policy.
func (c *Config) RetryPolicy() *task.RetryPolicy {
	return &task.RetryPolicy{
		Type:       c.Release.RetryType,
		MaxRetries: c.Release.Retries,
		Delay:      time.Duration(c.Release.RetryDelay),
	}
}

// LoadConfig reads a YAML (or JSON) configuration from URL on top of
// DefaultConfig.
func LoadConfig(ctx context.Context, fs afs.Service, URL string) (*Config, error) {
	if fs == nil {
		fs = afs.New()
	}
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", URL, err)
	}
	ret := DefaultConfig()
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", URL, err)
	}
	return ret, nil
}

// Duration is a time.Duration expressed in config files as "90s" or "5m".
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) parse(text string) error {
	value, err := time.ParseDuration(strings.TrimSpace(text))
	if err != nil {
		return err
	}
	*d = Duration(value)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var text string
	if err := node.Decode(&text); err != nil {
		return err
	}
	return d.parse(text)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	return d.parse(text)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

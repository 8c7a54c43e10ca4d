package policy

import (
	"context"
	"path"
	"strings"
)

// NoteExcluded is attached to results of services filtered out by a policy.
const NoteExcluded = "excluded by policy"

// Policy selects the services a run executes.
//
//   - AllowList, when not empty, admits only the listed services.
//   - BlockList rejects services and has priority over AllowList.
//
// Entries match service names case-insensitively and may use path.Match
// wildcards, e.g. "ui-*".
type Policy struct {
	AllowList []string
	BlockList []string
}

// Config represents the serialisable form of a Policy.
type Config struct {
	AllowList []string `json:"only,omitempty" yaml:"only,omitempty"`
	BlockList []string `json:"skip,omitempty" yaml:"skip,omitempty"`
}

// FromConfig converts a Config to a Policy; empty lists yield nil.
func FromConfig(c *Config) *Policy {
	if c == nil || (len(c.AllowList) == 0 && len(c.BlockList) == 0) {
		return nil
	}
	return &Policy{
		AllowList: append([]string(nil), c.AllowList...),
		BlockList: append([]string(nil), c.BlockList...),
	}
}

// IsAllowed evaluates the block and allow lists against a service name.
func (p *Policy) IsAllowed(name string) bool {
	if p == nil {
		return true
	}
	if matchAny(p.BlockList, name) {
		return false
	}
	if len(p.AllowList) == 0 {
		return true
	}
	return matchAny(p.AllowList, name)
}

func matchAny(patterns []string, name string) bool {
	normalized := strings.ToLower(name)
	for _, pattern := range patterns {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == normalized {
			return true
		}
		if ok, err := path.Match(pattern, normalized); err == nil && ok {
			return true
		}
	}
	return false
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy from ctx, nil when absent.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}

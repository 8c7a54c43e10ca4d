package task

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs/url"

	"github.com/viant/monoflux/internal/du"
	"github.com/viant/monoflux/model"
)

// CleanPaths lists service relative paths removed by the clean task.
type CleanPaths struct {
	Outputs []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Deps    []string `json:"deps,omitempty" yaml:"deps,omitempty"`
	Caches  []string `json:"caches,omitempty" yaml:"caches,omitempty"`
}

// DefaultCleanPaths returns the default clean targets.
func DefaultCleanPaths() CleanPaths {
	return CleanPaths{
		Outputs: []string{"dist", "build", ".next", "out", "coverage"},
		Deps:    []string{"node_modules"},
		Caches:  []string{".turbo", ".cache", ".eslintcache", "tsconfig.tsbuildinfo"},
	}
}

// Clean removes build outputs and optionally dependency trees and caches.
type Clean struct {
	Paths  CleanPaths
	All    bool // also caches, implies Deps
	Deps   bool
	DryRun bool
}

func (c *Clean) Kind() model.TaskKind          { return model.TaskClean }
func (c *Clean) DefaultTimeout() time.Duration { return DefaultCleanTimeout }
func (c *Clean) Retry() *RetryPolicy           { return nil }

// Targets returns the relative paths selected by the flags.
func (c *Clean) Targets() []string {
	targets := append([]string{}, c.Paths.Outputs...)
	if c.Deps || c.All {
		targets = append(targets, c.Paths.Deps...)
	}
	if c.All {
		targets = append(targets, c.Paths.Caches...)
	}
	return targets
}

// Execute measures every existing target and, unless dry run, deletes it.
// SizeBytes is the space freed or that would be freed.
func (c *Clean) Execute(ctx context.Context, svc *model.ServiceDescriptor, env *Env) *model.TaskResult {
	result := model.NewTaskResult(svc, model.TaskClean)
	var freed int64
	affected := []string{}
	for _, target := range c.Targets() {
		if err := ctx.Err(); err != nil {
			result.Fail(&model.ErrorEntry{Kind: model.ErrorKindExecution, Message: fmt.Sprintf("clean interrupted: %v", err)})
			break
		}
		location := url.Join(svc.URL, target)
		exists, err := env.FS.Exists(ctx, location)
		if err != nil {
			result.Fail(&model.ErrorEntry{Kind: model.ErrorKindExecution, Message: fmt.Sprintf("failed to check %s: %v", target, err)})
			continue
		}
		if !exists {
			continue
		}
		size, err := du.Size(ctx, env.FS, location)
		if err != nil {
			result.Fail(&model.ErrorEntry{Kind: model.ErrorKindExecution, Message: fmt.Sprintf("failed to measure %s: %v", target, err)})
			continue
		}
		if !c.DryRun {
			if err := env.FS.Delete(ctx, location); err != nil {
				result.Fail(&model.ErrorEntry{Kind: model.ErrorKindExecution, Message: fmt.Sprintf("failed to delete %s: %v", target, err)})
				continue
			}
			env.Logger.Debug("clean: removed", "service", svc.Name, "path", target, "bytes", size)
		}
		freed += size
		affected = append(affected, target)
	}
	result.SizeBytes = &freed
	result.SetDetail("paths", affected)
	result.SetDetail("dryRun", c.DryRun)
	if c.DryRun {
		result.Note = NoteDryRun
	}
	return result
}

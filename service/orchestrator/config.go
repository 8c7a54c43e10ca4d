package orchestrator

import (
	"time"

	"github.com/viant/monoflux/service/scheduler"
)

// Config represents orchestrator configuration.
type Config struct {
	// Workspace is the workspace root URL; relative roots resolve against it.
	Workspace string
	// Roots lists the root collections holding service directories.
	Roots []string
	// AppRoots lists root collection names whose services are apps.
	AppRoots []string
	// Concurrency is the number of workers, bounding concurrent processes.
	Concurrency int
	// Priorities maps service names to 1..4.
	Priorities      map[string]int
	DefaultPriority int
	// Critical services raise a warning when they fail.
	Critical []string
	// Timeout overrides the strategy default when positive.
	Timeout time.Duration
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		Roots:           []string{"apps", "services", "packages"},
		AppRoots:        []string{"apps"},
		Concurrency:     4,
		DefaultPriority: scheduler.MaxPriority,
	}
}

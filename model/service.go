package model

import "strings"

// Kind classifies a service unit by the collection it was discovered in.
type Kind string

const (
	KindApp            Kind = "app"
	KindLibraryService Kind = "library-service"
)

// Framework identifies the dominant framework of a service unit.
type Framework string

const (
	FrameworkUnknown Framework = "unknown"
	FrameworkNext    Framework = "next"
	FrameworkNuxt    Framework = "nuxt"
	FrameworkReact   Framework = "react"
	FrameworkVue     Framework = "vue"
	FrameworkSvelte  Framework = "svelte"
	FrameworkAngular Framework = "angular"
	FrameworkNest    Framework = "nestjs"
	FrameworkExpress Framework = "express"
	FrameworkFastify Framework = "fastify"
	FrameworkKoa     Framework = "koa"
)

// Capabilities summarises what a service unit can do.
type Capabilities struct {
	HasBuild   bool      `json:"hasBuild"`
	HasTest    bool      `json:"hasTest"`
	HasLint    bool      `json:"hasLint"`
	HasPublish bool      `json:"hasPublish"`
	Framework  Framework `json:"framework"`
}

// ServiceDescriptor describes a single service unit of the workspace.
type ServiceDescriptor struct {
	Name         string            `json:"name"`
	Path         string            `json:"path"`     // local directory
	URL          string            `json:"url"`      // storage URL of the directory
	Manifest     string            `json:"manifest"` // storage URL of the manifest file
	Root         string            `json:"root"`
	Kind         Kind              `json:"kind"`
	Priority     int               `json:"priority"`
	Version      string            `json:"version,omitempty"`
	Private      bool              `json:"private,omitempty"`
	Tasks        map[string]string `json:"tasks,omitempty"`
	Capabilities Capabilities      `json:"capabilities"`
}

// Command returns the declared command for the named task.
func (d *ServiceDescriptor) Command(task string) (string, bool) {
	if d == nil || len(d.Tasks) == 0 {
		return "", false
	}
	cmd, ok := d.Tasks[task]
	if !ok || strings.TrimSpace(cmd) == "" {
		return "", false
	}
	return cmd, true
}

// WithPriority returns a copy of the descriptor carrying the supplied priority.
func (d *ServiceDescriptor) WithPriority(priority int) *ServiceDescriptor {
	ret := *d
	ret.Priority = priority
	return &ret
}

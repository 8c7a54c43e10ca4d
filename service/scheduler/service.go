package scheduler

import (
	"fmt"
	"sort"

	"github.com/viant/monoflux/model"
)

const (
	// MinPriority is the most critical priority.
	MinPriority = 1
	// MaxPriority is the least critical priority and the default fallback.
	MaxPriority = 4
)

// Group is a set of services sharing the same priority.
type Group struct {
	Priority int
	Services []*model.ServiceDescriptor
}

// Names returns service names of the group in order.
func (g *Group) Names() []string {
	ret := make([]string, 0, len(g.Services))
	for _, svc := range g.Services {
		ret = append(ret, svc.Name)
	}
	return ret
}

// Service resolves priorities and groups services.
type Service struct {
	priorities map[string]int
	fallback   int
}

// New creates a scheduler.  Priorities outside 1..4 are rejected; a zero
// fallback means MaxPriority.
func New(priorities map[string]int, fallback int) (*Service, error) {
	if fallback == 0 {
		fallback = MaxPriority
	}
	if !valid(fallback) {
		return nil, fmt.Errorf("invalid default priority %d: expected %d..%d", fallback, MinPriority, MaxPriority)
	}
	table := make(map[string]int, len(priorities))
	for name, priority := range priorities {
		if !valid(priority) {
			return nil, fmt.Errorf("invalid priority %d for %q: expected %d..%d", priority, name, MinPriority, MaxPriority)
		}
		table[name] = priority
	}
	return &Service{priorities: table, fallback: fallback}, nil
}

func valid(priority int) bool {
	return priority >= MinPriority && priority <= MaxPriority
}

// Priority returns the priority for the service name.
func (s *Service) Priority(name string) int {
	if priority, ok := s.priorities[name]; ok {
		return priority
	}
	return s.fallback
}

// Schedule groups services by ascending priority.  Empty groups are
// omitted.  Returned descriptors are copies carrying the resolved priority.
func (s *Service) Schedule(services []*model.ServiceDescriptor) []*Group {
	byPriority := map[int]*Group{}
	for _, svc := range services {
		priority := s.Priority(svc.Name)
		group, ok := byPriority[priority]
		if !ok {
			group = &Group{Priority: priority}
			byPriority[priority] = group
		}
		group.Services = append(group.Services, svc.WithPriority(priority))
	}
	groups := make([]*Group, 0, len(byPriority))
	for _, group := range byPriority {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Priority < groups[j].Priority })
	return groups
}

// Flatten concatenates groups in order.
func Flatten(groups []*Group) []*model.ServiceDescriptor {
	var ret []*model.ServiceDescriptor
	for _, group := range groups {
		ret = append(ret, group.Services...)
	}
	return ret
}

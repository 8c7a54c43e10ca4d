package aggregator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/viant/monoflux/model"
)

// Item carries a settled result together with the service it belongs to.
type Item struct {
	Service *model.ServiceDescriptor
	Result  *model.TaskResult
}

// Option customises the aggregator.
type Option func(s *Service)

// WithProbe sets the artifact size probe; nil disables probing.
func WithProbe(probe SizeProbe) Option {
	return func(s *Service) { s.probe = probe }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service accumulates results of one run.
type Service struct {
	probe  SizeProbe
	logger *slog.Logger
	report *model.Report
	items  chan *Item
	done   chan struct{}
	once   sync.Once
}

// New creates an aggregator for the task.
func New(task model.TaskKind, options ...Option) *Service {
	ret := &Service{report: model.NewReport(task), done: make(chan struct{})}
	for _, option := range options {
		option(ret)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	return ret
}

// Start launches the aggregation goroutine and returns its input channel.
// The caller closes the channel once every result was sent.
func (s *Service) Start(ctx context.Context) chan<- *Item {
	s.once.Do(func() {
		s.items = make(chan *Item)
		go func() {
			defer close(s.done)
			for item := range s.items {
				s.Accumulate(ctx, item)
			}
		}()
	})
	return s.items
}

// Wait blocks until the input channel is closed and drained, then returns
// the report.  Without Start it returns the report immediately.
func (s *Service) Wait() *model.Report {
	if s.items == nil {
		return s.report
	}
	<-s.done
	return s.report
}

// Accumulate folds one result into the report.  It must not be called
// concurrently; Start serialises calls for concurrent producers.  A second
// result for the same service is ignored.
func (s *Service) Accumulate(ctx context.Context, item *Item) {
	if item == nil || item.Result == nil {
		return
	}
	result := item.Result.Clone()
	if _, ok := s.report.PerService[result.Service]; ok {
		s.logger.Warn("aggregator: duplicate result ignored", "service", result.Service)
		return
	}
	if s.probe != nil && result.SizeBytes == nil && result.Task == model.TaskBuild && result.Outcome == model.OutcomeSuccess {
		if size, ok := s.probe.Probe(ctx, item.Service); ok {
			result.SizeBytes = &size
		}
	}
	if result.Framework == "" {
		result.Framework = model.FrameworkUnknown
	}
	s.report.PerService[result.Service] = result
	s.report.Order = append(s.report.Order, result.Service)
	s.report.Totals.Add(result.Outcome)
	add(s.breakdown(s.report.ByPriority, result.Priority), result)
	add(s.frameworkBreakdown(string(result.Framework)), result)
	if result.SizeBytes != nil {
		s.report.TotalSizeBytes += *result.SizeBytes
	}
}

// Summarize returns the report built so far.
func (s *Service) Summarize() *model.Report {
	return s.report
}

func (s *Service) breakdown(m map[int]*model.Breakdown, key int) *model.Breakdown {
	ret, ok := m[key]
	if !ok {
		ret = &model.Breakdown{}
		m[key] = ret
	}
	return ret
}

func (s *Service) frameworkBreakdown(key string) *model.Breakdown {
	ret, ok := s.report.ByFramework[key]
	if !ok {
		ret = &model.Breakdown{}
		s.report.ByFramework[key] = ret
	}
	return ret
}

func add(b *model.Breakdown, result *model.TaskResult) {
	b.Totals.Add(result.Outcome)
	if result.Outcome == model.OutcomeTimeout {
		b.Timeouts++
	}
	b.DurationMs += result.DurationMs
	if result.SizeBytes != nil {
		b.SizeBytes += *result.SizeBytes
	}
}

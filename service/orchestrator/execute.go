package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/viant/monoflux/model"
	"github.com/viant/monoflux/policy"
	"github.com/viant/monoflux/progress"
	"github.com/viant/monoflux/service/aggregator"
	"github.com/viant/monoflux/service/messaging"
	"github.com/viant/monoflux/service/messaging/memory"
	"github.com/viant/monoflux/service/scheduler"
	"github.com/viant/monoflux/service/task"
	"github.com/viant/monoflux/tracing"
)

// ErrInFlight rejects a job for a service that already has a running task.
var ErrInFlight = errors.New("service already in flight")

// NoteInFlight marks a service whose duplicate job was rejected.
const NoteInFlight = "already in flight"

// job is a service task waiting for a worker.
type job struct {
	ctx        context.Context
	svc        *model.ServiceDescriptor
	dispatched *sync.WaitGroup
}

// pool tracks the tasks of one execute stage.
type pool struct {
	controller *Controller
	strategy   task.Strategy
	queue      *memory.Queue[job]
	items      chan<- *aggregator.Item
	settled    sync.WaitGroup
	inFlight   sync.Map
	mux        sync.Mutex
	order      []string
}

func (p *pool) dispatch(name string) {
	p.mux.Lock()
	p.order = append(p.order, name)
	p.mux.Unlock()
}

// execute runs all groups and returns the aggregated report once every
// dispatched task settled.
func (c *Controller) execute(ctx context.Context, strategy task.Strategy, groups []*scheduler.Group) *model.Report {
	agg := aggregator.New(strategy.Kind(), aggregator.WithProbe(c.probe), aggregator.WithLogger(c.logger))
	p := &pool{
		controller: c,
		strategy:   strategy,
		queue:      memory.NewQueue[job](memory.Config{DeadLetter: true, QueueBuffer: c.config.Concurrency}),
		items:      agg.Start(ctx),
	}
	var workers sync.WaitGroup
	for i := 0; i < c.config.Concurrency; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			p.work(ctx)
		}()
	}

	filter := c.policy
	if filter == nil {
		filter = policy.FromContext(ctx)
	}
	for _, group := range groups {
		groupCtx, span := tracing.StartSpan(ctx, fmt.Sprintf("priority %d", group.Priority), tracing.KindProducer)
		span.WithInt("services", len(group.Services))
		var dispatched sync.WaitGroup
		for _, svc := range group.Services {
			if !filter.IsAllowed(svc.Name) {
				p.dispatch(svc.Name)
				progress.UpdateCtx(ctx, progress.Delta{Pending: -1, Skipped: 1})
				result := model.NewTaskResult(svc, strategy.Kind()).Skip(policy.NoteExcluded)
				p.items <- &aggregator.Item{Service: svc, Result: result}
				continue
			}
			dispatched.Add(1)
			p.settled.Add(1)
			if err := p.queue.Publish(ctx, &job{ctx: groupCtx, svc: svc, dispatched: &dispatched}); err != nil {
				dispatched.Done()
				p.dispatch(svc.Name)
				progress.UpdateCtx(ctx, progress.Delta{Pending: -1, Failed: 1})
				result := model.NewTaskResult(svc, strategy.Kind()).Fail(&model.ErrorEntry{
					Kind:    model.ErrorKindExecution,
					Message: fmt.Sprintf("not dispatched: %v", err),
				})
				p.items <- &aggregator.Item{Service: svc, Result: result}
				p.settled.Done()
			}
		}
		dispatched.Wait()
		tracing.EndSpan(span, nil)
	}
	_ = p.queue.Close()
	p.settled.Wait()
	workers.Wait()
	warnings := p.settleRejected()
	close(p.items)
	report := agg.Wait()
	report.Order = p.order
	report.Warnings = append(report.Warnings, warnings...)
	return report
}

// settleRejected sends a skipped result for every rejected job.  It runs
// once all tasks settled, so the aggregator keeps the result of the task
// that was in flight and a rejected service never ends without a result.
func (p *pool) settleRejected() []string {
	var warnings []string
	for _, letter := range p.queue.DeadLetters() {
		j := letter.T()
		p.controller.logger.Warn("orchestrator: job rejected", "service", j.svc.Name, "message", letter.ID(), "error", letter.Err())
		warnings = append(warnings, fmt.Sprintf("service %s not run: %v", j.svc.Name, letter.Err()))
		result := model.NewTaskResult(j.svc, p.strategy.Kind()).Skip(NoteInFlight)
		p.items <- &aggregator.Item{Service: j.svc, Result: result}
	}
	return warnings
}

// work consumes jobs until the queue is closed and drained.  Consumption
// ignores cancellation of ctx so queued services still settle with a
// result; the canceled context makes their processes end at once.
func (p *pool) work(ctx context.Context) {
	consumeCtx := context.WithoutCancel(ctx)
	for {
		message, err := p.queue.Consume(consumeCtx)
		if err != nil {
			return
		}
		j := message.T()
		if _, busy := p.inFlight.LoadOrStore(j.svc.Name, true); busy {
			j.dispatched.Done()
			p.reject(message, j)
			continue
		}
		p.dispatch(j.svc.Name)
		j.dispatched.Done()
		p.run(j)
		_ = message.Ack()
	}
}

// reject dead-letters a job whose service is already running.
func (p *pool) reject(message messaging.Message[job], j *job) {
	defer p.settled.Done()
	progress.UpdateCtx(j.ctx, progress.Delta{Pending: -1, Skipped: 1})
	_ = message.Nack(fmt.Errorf("%w: %s", ErrInFlight, j.svc.Name))
}

func (p *pool) run(j *job) {
	defer p.settled.Done()
	defer p.inFlight.Delete(j.svc.Name)
	result := p.controller.executor.Run(j.ctx, j.svc, p.strategy, p.controller.config.Timeout)
	p.items <- &aggregator.Item{Service: j.svc, Result: result}
}

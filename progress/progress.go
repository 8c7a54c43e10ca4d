package progress

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change.  Fields are signed.
type Delta struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
	Skipped   int
}

// Counters is a point in time copy of the tracker state.
type Counters struct {
	RunID     string
	Task      string
	StartedAt time.Time

	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
	Skipped   int
}

// Done reports how many tasks reached a terminal state.
func (c Counters) Done() int {
	return c.Completed + c.Failed + c.Skipped
}

// Progress keeps task counters for one run.  It is safe for concurrent use.
type Progress struct {
	mux      sync.Mutex
	counters Counters
	onChange func(Counters)
}

// New creates a tracker for the run.
func New(runID, task string, onChange func(Counters)) *Progress {
	return &Progress{
		counters: Counters{RunID: runID, Task: task, StartedAt: time.Now()},
		onChange: onChange,
	}
}

// Update applies the delta.  The onChange callback, if any, runs outside
// the critical section with a copy of the updated counters.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mux.Lock()
	p.counters.Total += d.Total
	p.counters.Pending += d.Pending
	p.counters.Running += d.Running
	p.counters.Completed += d.Completed
	p.counters.Failed += d.Failed
	p.counters.Skipped += d.Skipped
	snapshot := p.counters
	cb := p.onChange
	p.mux.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.counters
}

// OnChange registers the callback invoked after every Update; nil disables it.
func (p *Progress) OnChange(cb func(Counters)) {
	if p == nil {
		return
	}
	p.mux.Lock()
	p.onChange = cb
	p.mux.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a tracker and embeds it in a derived context.
func WithNewTracker(ctx context.Context, runID, task string, onChange func(Counters)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	tracker := New(runID, task, onChange)
	return context.WithValue(ctx, trackerKey, tracker), tracker
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tracker, ok := ctx.Value(trackerKey).(*Progress)
	return tracker, ok
}

// UpdateCtx applies the delta to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tracker, ok := FromContext(ctx); ok {
		tracker.Update(d)
	}
}

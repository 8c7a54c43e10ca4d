package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Update(t *testing.T) {
	var observed []Counters
	ctx, tracker := WithNewTracker(context.Background(), "run-1", "build", func(c Counters) {
		observed = append(observed, c)
	})

	UpdateCtx(ctx, Delta{Total: 3, Pending: 3})
	UpdateCtx(ctx, Delta{Pending: -1, Running: 1})
	UpdateCtx(ctx, Delta{Running: -1, Failed: 1})
	UpdateCtx(ctx, Delta{Pending: -1, Skipped: 1})

	snapshot := tracker.Snapshot()
	assert.Equal(t, "run-1", snapshot.RunID)
	assert.Equal(t, "build", snapshot.Task)
	assert.Equal(t, 3, snapshot.Total)
	assert.Equal(t, 1, snapshot.Pending)
	assert.Equal(t, 0, snapshot.Running)
	assert.Equal(t, 2, snapshot.Done())
	assert.Len(t, observed, 4)
}

func TestProgress_Concurrent(t *testing.T) {
	tracker := New("run", "test", nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Update(Delta{Completed: 1})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, tracker.Snapshot().Completed)
}

func TestFromContext_Missing(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	UpdateCtx(context.Background(), Delta{Total: 1})
	var tracker *Progress
	tracker.Update(Delta{Total: 1})
	assert.Equal(t, Counters{}, tracker.Snapshot())
}

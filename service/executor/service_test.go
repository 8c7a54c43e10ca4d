package executor

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/monoflux/model"
	"github.com/viant/monoflux/progress"
	"github.com/viant/monoflux/service/exec"
	"github.com/viant/monoflux/service/task"
)

type panicStrategy struct{ task.Build }

func (p *panicStrategy) Execute(context.Context, *model.ServiceDescriptor, *task.Env) *model.TaskResult {
	panic("boom")
}

type nilStrategy struct{ task.Build }

func (n *nilStrategy) Execute(context.Context, *model.ServiceDescriptor, *task.Env) *model.TaskResult {
	return nil
}

type blockingStrategy struct{ task.Build }

func (b *blockingStrategy) Execute(ctx context.Context, svc *model.ServiceDescriptor, _ *task.Env) *model.TaskResult {
	<-ctx.Done()
	return model.NewTaskResult(svc, model.TaskBuild)
}

func TestService_Run_Isolation(t *testing.T) {
	var testCases = []struct {
		description   string
		strategy      task.Strategy
		timeout       time.Duration
		expectOutcome model.Outcome
		expectMessage string
	}{
		{description: "panic becomes failure", strategy: &panicStrategy{}, expectOutcome: model.OutcomeFailure, expectMessage: "strategy panicked: boom"},
		{description: "nil result becomes failure", strategy: &nilStrategy{}, expectOutcome: model.OutcomeFailure, expectMessage: ErrNoResult.Error()},
		{description: "budget exceeded without process", strategy: &blockingStrategy{}, timeout: 50 * time.Millisecond, expectOutcome: model.OutcomeTimeout},
	}

	for _, testCase := range testCases {
		var settled []*model.TaskResult
		srv := NewService(exec.NewLocal(), WithListener(func(_ *model.ServiceDescriptor, result *model.TaskResult) {
			settled = append(settled, result)
		}))
		svc := &model.ServiceDescriptor{Name: "crashy", Priority: 2}
		result := srv.Run(context.Background(), svc, testCase.strategy, testCase.timeout)
		require.NotNil(t, result, testCase.description)
		assert.Equal(t, testCase.expectOutcome, result.Outcome, testCase.description)
		assert.Equal(t, "crashy", result.Service, testCase.description)
		assert.Equal(t, 2, result.Priority, testCase.description)
		if testCase.expectMessage != "" {
			assert.Equal(t, testCase.expectMessage, result.FirstError().Message, testCase.description)
		}
		assert.Len(t, settled, 1, testCase.description)
	}
}

func TestService_Run_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell required")
	}
	svc := &model.ServiceDescriptor{Name: "slow", Path: t.TempDir(), Priority: 1, Tasks: map[string]string{"build": "sleep 30"}}
	ctx, tracker := progress.WithNewTracker(context.Background(), "run", "build", nil)
	tracker.Update(progress.Delta{Total: 1, Pending: 1})

	started := time.Now()
	result := NewService(exec.NewLocal()).Run(ctx, svc, &task.Build{}, 200*time.Millisecond)
	assert.Less(t, time.Since(started), 10*time.Second)
	assert.Equal(t, model.OutcomeTimeout, result.Outcome)
	if assert.Len(t, result.Errors, 1) {
		assert.Equal(t, model.ErrorKindTimeout, result.Errors[0].Kind)
	}
	snapshot := tracker.Snapshot()
	assert.Equal(t, 1, snapshot.Failed)
	assert.Equal(t, 0, snapshot.Running)
	assert.Equal(t, 0, snapshot.Pending)
}

func TestService_Run_Success(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell required")
	}
	svc := &model.ServiceDescriptor{Name: "web", Path: t.TempDir(), Tasks: map[string]string{"test": "echo ok"}}
	result := NewService(exec.NewLocal()).Run(context.Background(), svc, &task.Test{}, 0)
	assert.Equal(t, model.OutcomeSuccess, result.Outcome)
	assert.False(t, result.StartedAt.IsZero())
	assert.GreaterOrEqual(t, result.DurationMs, int64(0))
}

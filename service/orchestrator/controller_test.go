package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/monoflux/model"
	"github.com/viant/monoflux/policy"
	"github.com/viant/monoflux/progress"
	"github.com/viant/monoflux/service/scheduler"
	"github.com/viant/monoflux/service/task"
)

// newWorkspace creates services/<name>/package.json for every entry; an
// empty script means no build script is declared.
func newWorkspace(t *testing.T, scripts map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, script := range scripts {
		location := filepath.Join(dir, "services", name)
		require.NoError(t, os.MkdirAll(location, 0o755))
		manifest := fmt.Sprintf(`{"name":%q}`, name)
		if script != "" {
			manifest = fmt.Sprintf(`{"name":%q,"scripts":{"build":%q}}`, name, script)
		}
		require.NoError(t, os.WriteFile(filepath.Join(location, "package.json"), []byte(manifest), 0o644))
	}
	return dir
}

func skipWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell required")
	}
}

func TestController_Run_Scenario(t *testing.T) {
	skipWindows(t)
	for _, concurrency := range []int{1, 3} {
		workspace := newWorkspace(t, map[string]string{"A": "sleep 30", "B": "echo ok", "C": ""})
		controller := New(WithConfig(Config{
			Workspace:   workspace,
			Roots:       []string{"services"},
			Concurrency: concurrency,
			Priorities:  map[string]int{"A": 1, "B": 2, "C": 1},
			Timeout:     300 * time.Millisecond,
		}))
		report := controller.Run(context.Background(), &task.Build{})
		description := fmt.Sprintf("concurrency %d", concurrency)

		assert.Equal(t, model.Totals{Processed: 3, Succeeded: 1, Failed: 1, Skipped: 1}, report.Totals, description)
		assert.Equal(t, model.OutcomeTimeout, report.PerService["A"].Outcome, description)
		assert.Equal(t, model.OutcomeSuccess, report.PerService["B"].Outcome, description)
		assert.Equal(t, model.OutcomeSkipped, report.PerService["C"].Outcome, description)
		require.Len(t, report.Order, 3, description)
		assert.ElementsMatch(t, []string{"A", "C"}, report.Order[:2], description)
		assert.Equal(t, "B", report.Order[2], description)
		if concurrency == 1 {
			assert.Equal(t, []string{"A", "C", "B"}, report.Order, description)
		}
		assert.True(t, report.Failed(), description)
		assert.False(t, report.Fatal, description)
		assert.Equal(t, StateFailure, controller.State(), description)
		assert.Equal(t, []State{StateInit, StateDiscover, StateSchedule, StateExecute, StateValidateCritical, StateReport, StateFailure}, controller.Transitions(), description)
	}
}

// crashStrategy panics for one service and records execution order.
type crashStrategy struct {
	task.Build
	crash string
	mux   sync.Mutex
	seen  []string
}

func (c *crashStrategy) Execute(ctx context.Context, svc *model.ServiceDescriptor, env *task.Env) *model.TaskResult {
	c.mux.Lock()
	c.seen = append(c.seen, svc.Name)
	c.mux.Unlock()
	if svc.Name == c.crash {
		panic("strategy bug")
	}
	return model.NewTaskResult(svc, model.TaskBuild)
}

func TestController_Run_Isolation(t *testing.T) {
	workspace := newWorkspace(t, map[string]string{"auth": "x", "gateway": "x", "web": "x", "docs": "x"})
	strategy := &crashStrategy{crash: "auth"}
	controller := New(WithConfig(Config{
		Workspace:   workspace,
		Roots:       []string{"services"},
		Concurrency: 2,
		Priorities:  map[string]int{"auth": 1, "gateway": 2, "web": 3},
	}), WithProbe(nil))
	report := controller.Run(context.Background(), strategy)

	assert.Len(t, strategy.seen, 4)
	assert.Len(t, report.PerService, 4)
	assert.Equal(t, model.OutcomeFailure, report.PerService["auth"].Outcome)
	assert.Equal(t, 3, report.Totals.Succeeded)
	assert.Equal(t, []string{"auth", "gateway", "web", "docs"}, report.Order)
}

func TestController_Run_PolicyAndCritical(t *testing.T) {
	skipWindows(t)
	workspace := newWorkspace(t, map[string]string{"auth": "exit 2", "web": "echo web", "legacy": "echo legacy"})
	controller := New(WithConfig(Config{
		Workspace:   workspace,
		Roots:       []string{"services", "apps"},
		Concurrency: 2,
		Critical:    []string{"auth", "web"},
		Priorities:  map[string]int{"auth": 1},
	}), WithPolicy(&policy.Policy{BlockList: []string{"legacy"}}))
	report := controller.Run(context.Background(), &task.Build{})

	assert.Equal(t, model.Totals{Processed: 3, Succeeded: 1, Failed: 1, Skipped: 1}, report.Totals)
	assert.Equal(t, policy.NoteExcluded, report.PerService["legacy"].Note)
	warnings := strings.Join(report.Warnings, "\n")
	assert.Contains(t, warnings, "apps does not exist")
	found := false
	for _, warning := range report.Warnings {
		if strings.HasPrefix(warning, "critical service auth failed: ") {
			found = true
		}
	}
	assert.NotContains(t, warnings, "critical service web")
	assert.True(t, found, "critical warning expected: %v", report.Warnings)
	assert.False(t, report.Fatal)
}

func TestController_Run_Fatal(t *testing.T) {
	var testCases = []struct {
		description string
		config      Config
	}{
		{description: "missing workspace", config: Config{Workspace: filepath.Join(t.TempDir(), "missing"), Roots: []string{"services"}}},
		{description: "no root collection", config: Config{Workspace: t.TempDir(), Roots: []string{"services", "apps"}}},
		{description: "invalid priority", config: Config{Workspace: newWorkspace(t, map[string]string{"a": ""}), Roots: []string{"services"}, Priorities: map[string]int{"a": 9}}},
	}
	for _, testCase := range testCases {
		controller := New(WithConfig(testCase.config))
		report := controller.Run(context.Background(), &task.Build{})
		assert.True(t, report.Fatal, testCase.description)
		assert.True(t, report.Failed(), testCase.description)
		if assert.NotEmpty(t, report.Errors, testCase.description) {
			assert.Equal(t, model.ErrorKindFatal, report.Errors[0].Kind, testCase.description)
		}
		assert.Contains(t, controller.Transitions(), StateFatalAbort, testCase.description)
		assert.Equal(t, StateFailure, controller.State(), testCase.description)
	}
}

func TestController_Abort(t *testing.T) {
	controller := New(WithConfig(Config{Workspace: "/ws"}))
	report := controller.Abort(context.Background(), model.TaskTest, "config", fmt.Errorf("invalid concurrency"))
	assert.True(t, report.Fatal)
	assert.Equal(t, model.TaskTest, report.Task)
	assert.Equal(t, []State{StateInit, StateFatalAbort, StateReport, StateFailure}, controller.Transitions())
}

func TestController_Run_Success(t *testing.T) {
	workspace := newWorkspace(t, map[string]string{"a": "x", "b": ""})
	controller := New(WithConfig(Config{Workspace: workspace, Roots: []string{"services"}, Concurrency: 4}))
	report := controller.Run(context.Background(), &crashStrategy{})
	assert.False(t, report.Failed())
	assert.Equal(t, StateSuccess, controller.State())
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, workspace, report.Workspace)
}

// countingStrategy records how many tasks run at once.
type countingStrategy struct {
	task.Build
	running atomic.Int32
	peak    atomic.Int32
}

func (c *countingStrategy) Execute(ctx context.Context, svc *model.ServiceDescriptor, env *task.Env) *model.TaskResult {
	current := c.running.Add(1)
	defer c.running.Add(-1)
	for {
		peak := c.peak.Load()
		if current <= peak || c.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	time.Sleep(50 * time.Millisecond)
	return model.NewTaskResult(svc, model.TaskBuild)
}

func TestController_Run_ConcurrencyAndBarrier(t *testing.T) {
	scripts := map[string]string{}
	priorities := map[string]int{}
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("s%02d", i)
		scripts[name] = "x"
		priorities[name] = i%3 + 1
	}
	strategy := &countingStrategy{}
	controller := New(WithConfig(Config{
		Workspace:   newWorkspace(t, scripts),
		Roots:       []string{"services"},
		Concurrency: 3,
		Priorities:  priorities,
	}), WithProbe(nil))
	report := controller.Run(context.Background(), strategy)

	assert.Equal(t, 12, report.Totals.Succeeded)
	assert.LessOrEqual(t, strategy.peak.Load(), int32(3))
	assert.GreaterOrEqual(t, strategy.peak.Load(), int32(2))
	require.Len(t, report.Order, 12)
	for i := 1; i < len(report.Order); i++ {
		previous, current := priorities[report.Order[i-1]], priorities[report.Order[i]]
		assert.LessOrEqual(t, previous, current, "%s dispatched after %s", report.Order[i], report.Order[i-1])
	}
	assert.ElementsMatch(t, []string{"s00", "s03", "s06", "s09"}, report.Order[:4])
}

// blockingStrategy holds every task until release is closed.
type blockingStrategy struct {
	task.Build
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingStrategy) Execute(ctx context.Context, svc *model.ServiceDescriptor, env *task.Env) *model.TaskResult {
	b.calls.Add(1)
	select {
	case <-b.release:
	case <-time.After(5 * time.Second):
	}
	return model.NewTaskResult(svc, model.TaskBuild)
}

func TestController_execute_RejectsServiceInFlight(t *testing.T) {
	strategy := &blockingStrategy{release: make(chan struct{})}
	var once sync.Once
	ctx, _ := progress.WithNewTracker(context.Background(), "run", "build", func(counters progress.Counters) {
		if counters.Skipped == 1 {
			once.Do(func() { close(strategy.release) })
		}
	})
	controller := New(WithConfig(Config{Workspace: t.TempDir(), Concurrency: 2}), WithProbe(nil))
	svc := &model.ServiceDescriptor{Name: "dup", Priority: 1}
	groups := []*scheduler.Group{{Priority: 1, Services: []*model.ServiceDescriptor{svc, svc}}}

	report := controller.execute(ctx, strategy, groups)
	assert.EqualValues(t, 1, strategy.calls.Load())
	assert.Equal(t, []string{"dup"}, report.Order)
	require.Contains(t, report.PerService, "dup")
	assert.Equal(t, model.OutcomeSuccess, report.PerService["dup"].Outcome)
	assert.Equal(t, 1, report.Totals.Processed)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "service dup not run: "+ErrInFlight.Error())
}

func TestState_IsTerminal(t *testing.T) {
	var testCases = []struct {
		description string
		state       State
		expect      bool
	}{
		{description: "success", state: StateSuccess, expect: true},
		{description: "failure", state: StateFailure, expect: true},
		{description: "fatal abort is followed by report", state: StateFatalAbort},
		{description: "execute", state: StateExecute},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, testCase.state.IsTerminal(), testCase.description)
	}
}

func TestController_Run_Logging(t *testing.T) {
	buffer := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buffer, &slog.HandlerOptions{Level: slog.LevelDebug}))
	workspace := newWorkspace(t, map[string]string{"api": "x", "web": "x"})
	controller := New(WithConfig(Config{Workspace: workspace, Roots: []string{"services"}, Priorities: map[string]int{"api": 1}}), WithLogger(logger), WithProbe(nil))
	controller.Run(context.Background(), &crashStrategy{})

	output := buffer.String()
	assert.Contains(t, output, `msg="orchestrator: scheduled" priority=1 services=[api]`)
	assert.Contains(t, output, `services=[web]`)
	assert.Contains(t, output, `msg="orchestrator: run finished" from=report state=success`)
}

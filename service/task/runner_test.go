package task

import (
	"context"
	"sync"

	"github.com/viant/monoflux/service/exec"
)

// fakeRunner replays scripted outputs per command line and records calls.
type fakeRunner struct {
	mux     sync.Mutex
	outputs map[string][]*exec.Output
	calls   []*exec.Command
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outputs: map[string][]*exec.Output{}}
}

func (f *fakeRunner) on(line string, outputs ...*exec.Output) *fakeRunner {
	f.outputs[line] = append(f.outputs[line], outputs...)
	return f
}

func (f *fakeRunner) Run(_ context.Context, command *exec.Command) (*exec.Output, error) {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.calls = append(f.calls, command)
	queue := f.outputs[command.Line]
	if len(queue) == 0 {
		return &exec.Output{}, nil
	}
	output := queue[0]
	if len(queue) > 1 {
		f.outputs[command.Line] = queue[1:]
	}
	return output, nil
}

func (f *fakeRunner) lines() []string {
	f.mux.Lock()
	defer f.mux.Unlock()
	var ret []string
	for _, call := range f.calls {
		ret = append(ret, call.Line)
	}
	return ret
}

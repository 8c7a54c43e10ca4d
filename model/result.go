package model

import (
	"strings"
	"time"
)

// Outcome is the terminal state of a task executed against a service unit.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeTimeout Outcome = "timeout"
	OutcomeSkipped Outcome = "skipped"
)

// IsFailed reports whether the outcome counts as failed.
func (o Outcome) IsFailed() bool {
	return o == OutcomeFailure || o == OutcomeTimeout
}

// ErrorKind classifies an error entry.
type ErrorKind string

const (
	ErrorKindDiscovery ErrorKind = "discovery"
	ErrorKindExecution ErrorKind = "execution"
	ErrorKindTimeout   ErrorKind = "timeout"
	ErrorKindFatal     ErrorKind = "fatal"
	ErrorKindWarning   ErrorKind = "warning"
)

// ErrorEntry records a single error observed while processing a service or the run.
type ErrorEntry struct {
	Kind     ErrorKind `json:"kind"`
	Message  string    `json:"message"`
	ExitCode *int      `json:"exitCode,omitempty"`
	Service  string    `json:"service,omitempty"`
}

// FirstLine returns the first non-empty line of the message.
func (e *ErrorEntry) FirstLine() string {
	for _, line := range strings.Split(e.Message, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// TaskResult is the outcome of running one task against one service unit.
type TaskResult struct {
	Service    string                 `json:"service"`
	Task       TaskKind               `json:"task"`
	Outcome    Outcome                `json:"outcome"`
	Priority   int                    `json:"priority"`
	Framework  Framework              `json:"framework"`
	StartedAt  time.Time              `json:"startedAt"`
	DurationMs int64                  `json:"durationMs"`
	SizeBytes  *int64                 `json:"sizeBytes,omitempty"`
	Retries    int                    `json:"retries"`
	Note       string                 `json:"note,omitempty"`
	Errors     []*ErrorEntry          `json:"errors,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// NewTaskResult creates a pending result for the service and task.
func NewTaskResult(svc *ServiceDescriptor, task TaskKind) *TaskResult {
	ret := &TaskResult{Task: task, Outcome: OutcomeSuccess, Framework: FrameworkUnknown}
	if svc != nil {
		ret.Service = svc.Name
		ret.Priority = svc.Priority
		ret.Framework = svc.Capabilities.Framework
	}
	return ret
}

// Skip marks the result skipped with an explanatory note.
func (r *TaskResult) Skip(note string) *TaskResult {
	r.Outcome = OutcomeSkipped
	r.Note = note
	return r
}

// Fail marks the result failed, appending the supplied error entry.
func (r *TaskResult) Fail(entry *ErrorEntry) *TaskResult {
	if entry != nil && entry.Kind == ErrorKindTimeout {
		r.Outcome = OutcomeTimeout
	} else if r.Outcome != OutcomeTimeout {
		r.Outcome = OutcomeFailure
	}
	r.AddError(entry)
	return r
}

// AddError appends an error entry without changing the outcome.
func (r *TaskResult) AddError(entry *ErrorEntry) {
	if entry == nil {
		return
	}
	if entry.Service == "" {
		entry.Service = r.Service
	}
	r.Errors = append(r.Errors, entry)
}

// SetDetail stores an auxiliary value reported alongside the result.
func (r *TaskResult) SetDetail(key string, value interface{}) {
	if r.Details == nil {
		r.Details = map[string]interface{}{}
	}
	r.Details[key] = value
}

// FirstError returns the first recorded error or nil.
func (r *TaskResult) FirstError() *ErrorEntry {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

// Clone returns a shallow copy with its own error slice and details map.
func (r *TaskResult) Clone() *TaskResult {
	ret := *r
	ret.Errors = append([]*ErrorEntry(nil), r.Errors...)
	if r.Details != nil {
		ret.Details = make(map[string]interface{}, len(r.Details))
		for k, v := range r.Details {
			ret.Details[k] = v
		}
	}
	return &ret
}

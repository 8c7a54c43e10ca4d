package model

import (
	"fmt"
	"time"
)

// DiscoveryError reports a candidate service directory without a readable manifest.
type DiscoveryError struct {
	Dir string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery: %s: %v", e.Dir, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ExecError reports an external process that exited with a non-zero status.
type ExecError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitCode)
}

// TimeoutError reports an external process terminated after exceeding its deadline.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q timed out after %s", e.Command, e.Timeout)
}

// FatalError reports a structural problem preventing the run from proceeding.
type FatalError struct {
	Stage string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal (%s): %v", e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// NewFatalError wraps err as a FatalError for the stage.
func NewFatalError(stage string, err error) *FatalError {
	return &FatalError{Stage: stage, Err: err}
}

// Entry converts a FatalError into a report error entry.
func (e *FatalError) Entry() *ErrorEntry {
	return &ErrorEntry{Kind: ErrorKindFatal, Message: e.Error()}
}

// Package executor is the per-service boundary of a run.  It runs a task
// strategy against one service within its timeout budget, converts panics
// and errors into failed results, and records timing, tracing and progress.
package executor

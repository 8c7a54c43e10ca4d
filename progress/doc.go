// Package progress tracks how many service tasks of a run are pending,
// running and finished.  The tracker travels in the context so every
// component handling a task can update it without a global registry.
package progress

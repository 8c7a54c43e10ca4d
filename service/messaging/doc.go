// Package messaging defines the queue abstraction feeding service tasks to
// orchestrator workers.
package messaging

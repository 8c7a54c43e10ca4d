// Package orchestrator drives a run: discover, schedule, execute, validate
// critical services and report.  Services of a priority group are executed
// by a bounded worker pool; every service of a group is picked up by a
// worker before the next group is published.
package orchestrator

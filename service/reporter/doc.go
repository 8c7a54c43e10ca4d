// Package reporter renders the run report for humans, persists the JSON
// artifact consumed by CI and derives the process exit code.
package reporter

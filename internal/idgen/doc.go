// Package idgen generates identifiers for orchestration runs. The generator
// is a swappable function so tests can produce deterministic run IDs.
package idgen

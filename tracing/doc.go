// Package tracing wraps OpenTelemetry so that orchestration runs, priority
// groups and service tasks are recorded as spans.  Until Init is called the
// global no-op provider is used and spans cost nothing.
package tracing

// Package model contains the in-memory representation of service units,
// per-service task results and the aggregated orchestration report.
//
// Descriptors are produced once per discovery pass and treated as immutable
// afterwards.  Task results are created by the executor and handed over to
// the aggregator, which folds them into a Report that the reporter renders
// and persists.
package model

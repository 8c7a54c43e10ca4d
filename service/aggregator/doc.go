// Package aggregator folds task results into the run report.  It is a
// single-writer actor: workers send results over a channel and only the
// aggregation goroutine mutates totals and breakdowns.
package aggregator

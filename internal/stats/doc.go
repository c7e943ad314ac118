// Package stats accumulates per-asset transform results into run summaries.
//
// An Aggregator only appends: results keep the order they were recorded in
// and are never dropped. Workers that run in parallel each own an Aggregator
// and the caller merges them in asset order.
package stats

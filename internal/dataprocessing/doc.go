// Package dataprocessing implements the derivation stages between the raw
// feeder export tables and the fixed-format report datasets: the
// pass-by-pass builder, the per-day aggregator, the complete-week filter and
// the accepted/refused event-log join.
//
// The stages are pure functions over in-memory slices; they never touch the
// filesystem. Data flows strictly builder -> aggregator -> filter, with the
// event log branching off the builder's output.
package dataprocessing

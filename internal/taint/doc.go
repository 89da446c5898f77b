// Package taint implements intraprocedural taint flow analysis.
//
// A single forward pass per function body maintains a table from variable
// binding to taint state: the set of origin tags contributed by catalog
// sources, cleared when the value passes through a matching sanitizer.
// When a tainted value reaches a catalog sink of a matching category, a
// dataflow finding is emitted naming the source, the sink, and the
// propagation chain.
//
// The analysis is deliberately conservative: at control-flow joins a
// binding is tainted if any branch left it tainted, and unknown function
// calls preserve the taint of their arguments. False positives are
// preferred over false negatives. Analysis is intraprocedural only —
// values passed into user-defined functions are not followed across the
// call; this is a known limitation, not an oversight.
//
// All state lives for the duration of one file's pass and is discarded
// afterward. The shared catalog is read-only, so concurrent passes over
// different files are safe by construction.
package taint

// Package evaluator runs carved terminal graphs.
//
// Link turns a carved graph into an immutable Evaluator: every node gets its
// input bindings (an upstream link or a constant) and the compute function
// of each output, resolved once from the registry. Evaluation is lazy and
// pull-based; a value is only computed when something downstream asks for
// it, and every computed pin value goes through the query cache of the
// instance the evaluation runs in.
//
// A Ref owns the evaluator of one (asset, terminal, output) and swaps it
// when a recompile produces a structurally different graph. The Table
// shares refs process-wide without keeping them alive.
package evaluator

// Package engine wires the compiler, the evaluators and the instance tree
// into the object clients talk to.
//
// The engine owns every process-wide piece: the node registry, the asset
// library, the compiler and its lowered-graph cache, the shared evaluator
// table, the parameter store, the worker pool and the serial goroutine on
// which graph changes are applied. Evaluations run concurrently on the
// pool; notifications about edited graphs are serialized and recompile the
// affected evaluators, which drops exactly the cached values that depended
// on them.
package engine

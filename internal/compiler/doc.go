// Package compiler lowers serialized terminal graphs into the IR the
// evaluator runs.
//
// Compilation is a fixed sequence of passes over a graphir.Graph. Every
// pass may append diagnostics; after each pass the graph invariants are
// checked and the pipeline stops at the first pass that reported an error.
// The lowered graph of a terminal is then carved once per queried output:
// virtual links are cut and everything not feeding the output is dropped.
package compiler

// Package node is the node/pin model shared by the authoring side, the
// compiler and the evaluator.
//
// # Declarations
//
// Every operation type is described once by an immutable Spec built with the
// Define builder. A Spec lists static pins, variadic pin groups, the binding
// kind for nodes the compiler treats specially (graph inputs, outputs,
// parameters, local variables, calls) and, for template nodes, the expansion
// function run by the compiler.
//
// # Instances
//
// A Node is one instance of a Spec. Its pins are materialized from the Spec
// on first access. Wildcard pins and template pins can be re-typed with
// PromotePin; promotion propagates to the other pins of the same wildcard
// group and keeps the scalar/buffer form of all template pins in lock-step.
// Variadic groups grow and shrink with AddPin, InsertPin and RemovePin; each
// element carries a fractional sort key so insertion never renumbers the
// group.
//
// Node instances are mutated by the authoring side only, from a single
// goroutine. The compiler clones them and the evaluator treats its clones as
// read-only.
package node

// Package model is the format-agnostic authoring representation of node
// graphs, produced by the HCL and YAML loaders and consumed by the serializer.
//
// # Core Concepts
//
//   - Library: every asset known to the process, keyed by name.
//
//   - Asset: a graph asset. It declares parameters and graph inputs, and owns
//     one or more terminals. The terminal named by Main is the graph entry
//     point; the others are functions callable from within the asset.
//
//   - Terminal: one independently compilable sub-graph with its own declared
//     outputs (and, for functions, inputs) and its authored nodes.
//
//   - Node: one authored node: an operation type, properties, pin promotions,
//     variadic arities and pin assignments. A pin assignment is a link to
//     another node's output, a literal default, or per-member assignments of a
//     composite pin (a split pin).
//
// Why a separate model package?
//
// The model records what the author wrote, nothing more. It is deliberately
// free of operation semantics: resolving types against the node registry,
// inferring wildcards and reporting bad links is the serializer's job. This
// keeps both loaders trivial and makes the model cheap to mutate from the
// change-notification side. Every mutation bumps the owning asset's revision,
// which the compiler uses to key its lowered-graph cache.
package model

// Package graphir is the editable intermediate representation the compiler
// rewrites. It is independent of the authoring model: nodes, pins and links
// only, with symmetric link bookkeeping on both ends.
//
// The graph is owned by one compilation and is not safe for concurrent use.
// Link and ownership invariants are verified by Check after every pass;
// violations are compiler bugs and panic.
package graphir

// Package corenodes declares the node types the compiler and the evaluator
// know structurally: graph inputs and outputs, parameters, local variables,
// passthroughs, buffer conversion, composite make/break helpers, observers
// and calls into functions and other graphs.
//
// Every other node type lives in a leaf library under modules/ and is opaque
// to the compiler.
package corenodes

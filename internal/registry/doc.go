// Package registry is the table of operation types known to the engine.
//
// The Registry maps a node type name to its node.Spec and each
// (type, output pin) pair to the native function computing that pin. It is
// populated once at startup from an explicit list of Modules, validated, and
// then handed to the serializer, the compiler and the evaluator. Nothing
// registers itself from init functions; adding a leaf node library means
// adding its Module to the list.
package registry

// Package serialized holds the structural snapshot of one terminal graph
// that the compiler consumes.
//
// A Graph is produced by the serializer from the authoring model, handed to
// exactly one compilation and then dropped. Nothing in this package refers
// back to the authoring model: once produced, a Graph is independent of any
// later edit.
package serialized

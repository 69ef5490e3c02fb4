// Package instance holds the tree of terminal graph instances an
// evaluation walks through.
//
// The root instance is the terminal a client queries. Every function or
// graph call creates (once) a child instance keyed by the call site, so
// that repeated evaluations reuse the child's value cache. An instance is
// the evaluator's scope: it resolves graph inputs through the node that
// called it, parameters through the parameter store, call-site overrides
// and declared defaults, and it creates the children for nested calls.
package instance

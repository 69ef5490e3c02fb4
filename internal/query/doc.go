// Package query tracks what an evaluation depended on and caches computed
// pin values until one of those dependencies changes.
//
// A Dependency is a versioned token. Evaluations record the tokens they
// read in a Tracker; cached values subscribe to the recorded tokens and are
// dropped when any of them is invalidated. Values are computed once per
// key: the first caller claims the key and resolves its Future, concurrent
// callers wait on it.
package query

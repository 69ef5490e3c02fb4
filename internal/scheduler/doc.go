// Package scheduler decides where evaluation work runs.
//
// # Why Scheduler Exists
//
// Evaluating a graph fans out: a node prefetches its inputs concurrently,
// and graph or function calls recurse into other evaluators. Unbounded
// goroutines would let one deep query starve everything else, while a
// plain bounded pool deadlocks as soon as every worker waits on a value
// that needs a worker to be computed.
//
// # How It Works
//
//   - **Pool:** a semaphore-bounded set of worker slots. Go runs a task on a
//     free slot, or inline on the calling goroutine when none is free, so
//     progress never depends on a slot becoming available.
//   - **Suspend:** a task about to block on another task's result gives its
//     slot back for the duration of the wait.
//   - **Serial:** a single goroutine that applies every mutation (recompiles,
//     parameter changes) in submission order. Code running on it carries a
//     context marker so OnSerial and AssertSerial can check where they run.
//
// # Relationship with Other Components
//
//   - **Evaluator:** prefetches inputs through a Pool group and suspends
//     while waiting on cached futures.
//   - **Engine:** owns one Pool and one Serial, and waits for the Pool's
//     active count to drop to zero on shutdown.
package scheduler

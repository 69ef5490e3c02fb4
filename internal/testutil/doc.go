// Package testutil provides shared helpers for tests that drive the whole
// application: log capture, an in-memory graph harness and probe nodes.
package testutil

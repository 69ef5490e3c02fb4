// Package diag defines the diagnostics channel shared by the compiler and
// the runtime.
//
// A Diagnostic is a message with a severity and an optional node/pin
// location. Compiler passes append diagnostics to a Diagnostics list and the
// pipeline stops at the next checkpoint once an error is present. Runtime
// errors never stop evaluation; they are reported to a Sink and the failing
// value degrades to its typed empty value.
package diag

// Package logs provides bounded-memory log tailing for the CLI.
//
// It reads the last N lines of the daemon log without loading the whole
// file, and supports follow mode: appended lines are streamed to the caller
// until the context is cancelled. The daemon writes the file; this package
// only ever reads.
package logs

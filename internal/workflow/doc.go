// Package workflow drives the job pipeline. A single worker drains the
// persisted queue in FIFO order, runs each job through the extraction,
// transcription, and alignment stages, and records every transition in the
// queue store so a restart can pick up where the daemon left off.
//
// Cancellation is stage-granular: a running stage always finishes, and the
// cancel request takes effect at the next stage boundary.
package workflow

// Package main hosts the lectern CLI entrypoint and command graph.
//
// The Cobra-based command tree covers daemon lifecycle, job queue
// maintenance, one-shot transcription and alignment runs, model downloads,
// and configuration scaffolding. Commands talk to the shared SQLite stores
// directly where they can and fall back to the daemon's HTTP API only for
// operations that need the running workflow, such as cancelling an
// in-flight job.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main

// Package queue persists transcription jobs in SQLite and exposes the
// lifecycle operations the workflow manager drives.
//
// A job moves forward through pending, extracting, transcribing, and aligning
// before reaching exactly one terminal state (completed, failed, or
// cancelled). Every transition is written durably before the next stage
// starts, which is what makes crash recovery possible: on startup,
// ResumeInterrupted returns any job stranded in a non-terminal state to
// pending with progress reset.
//
// At most one active (non-terminal) job may exist per subject; Enqueue
// enforces this invariant.
package queue

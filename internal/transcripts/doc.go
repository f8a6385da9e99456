// Package transcripts persists per-chapter transcripts and finished alignment
// records in SQLite.
//
// A chapter transcript is unique per (book, chapter), written lazily on first
// successful transcription, and immutable afterwards; the only way to discard
// one is the explicit wholesale InvalidateBook. Alignment records are written
// once per successful job and replaced (old row deleted first) on re-run.
package transcripts

// Package asr wraps the whisper.cpp speech-recognition engine with backend
// selection, model artifact management, and book-level transcription.
//
// Key responsibilities:
//   - Detecting a compute backend (Metal, CUDA, Vulkan, or CPU) from the
//     platform and the user's preference, via injectable capability probes.
//   - Downloading ggml model artifacts with atomic temp-file-then-rename
//     completion so a crash can never leave a partial file in place.
//   - Owning the long-lived engine handle shared across jobs and chapters,
//     rebuilt only when the model setting changes, with a single automatic
//     CPU fallback when GPU initialization fails.
//   - Transcribing chapters into terminal-punctuation-segmented sentences,
//     degrading to synthetic placeholder transcripts when the engine is
//     unavailable, and aggregating chapters into a book-wide timeline with
//     per-chapter caching.
//
// The real engine binding is compiled in with the "whisper" build tag; the
// default build uses a stub that reports the engine unavailable, which keeps
// every downstream path (including the degraded synthetic mode) testable.
package asr

// Package books resolves subject identifiers to chapter audio files and
// companion documents.
//
// Library scanning and tag extraction live outside this system; the pipeline
// only needs an ordered list of chapter audio paths with known durations plus
// an optional document path per subject. A Resolver supplies that, and the
// default implementation reads one JSON manifest per subject from the
// configured library directory.
package books

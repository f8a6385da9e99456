// Package alignment maps printed sentences to spoken audio.
//
// The transcript's sentences are indexed by their first three normalized
// words; each document sentence looks up its key and claims the best
// sufficiently similar transcript sentence, each at most once. Gaps between
// matches are filled by linear interpolation, and synthetic transcripts fall
// back to distributing the text evenly over the book's running time. The
// result carries per-sentence timing, confidence, an on-page position
// estimate, and an overall quality score.
package alignment

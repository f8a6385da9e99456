package asr

import (
	"fmt"

	"lectern/internal/transcripts"
)

// SyntheticSentences fabricates evenly spaced placeholder sentences covering
// the chapter's duration. They stand in when no recognition engine is
// available so alignment can still distribute text over time.
func SyntheticSentences(durationSeconds, sentenceSeconds float64, chapterIndex int) []transcripts.Sentence {
	if durationSeconds <= 0 {
		return nil
	}
	if sentenceSeconds <= 0 {
		sentenceSeconds = 5.0
	}
	count := int(durationSeconds / sentenceSeconds)
	if count < 1 {
		count = 1
	}
	step := durationSeconds / float64(count)

	sentences := make([]transcripts.Sentence, count)
	for i := range sentences {
		start := float64(i) * step
		end := start + step
		if i == count-1 {
			end = durationSeconds
		}
		sentences[i] = transcripts.Sentence{
			Text:         fmt.Sprintf("[synthetic segment %d]", i+1),
			Start:        start,
			End:          end,
			ChapterIndex: chapterIndex,
		}
	}
	return sentences
}

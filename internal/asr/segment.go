package asr

import (
	"regexp"
	"strings"

	"lectern/internal/transcripts"
)

// sentenceEnd matches terminal punctuation, optionally followed by a single
// closing quote or bracket.
var sentenceEnd = regexp.MustCompile(`[.!?]["')\]]?$`)

// SegmentFragments merges raw recognizer fragments into sentences. Fragments
// accumulate until one ends in terminal punctuation; the sentence takes the
// start time of its first fragment and the end time of its last. A trailing
// run without terminal punctuation is flushed as a final sentence so no
// recognized text is dropped.
func SegmentFragments(fragments []Fragment, chapterIndex int) []transcripts.Sentence {
	var (
		sentences []transcripts.Sentence
		parts     []string
		startMs   int64
		endMs     int64
	)
	flush := func() {
		if len(parts) == 0 {
			return
		}
		text := strings.TrimSpace(strings.Join(parts, " "))
		if text != "" {
			sentences = append(sentences, transcripts.Sentence{
				Text:         text,
				Start:        float64(startMs) / 1000.0,
				End:          float64(endMs) / 1000.0,
				ChapterIndex: chapterIndex,
			})
		}
		parts = parts[:0]
	}

	for _, frag := range fragments {
		text := strings.TrimSpace(frag.Text)
		if text == "" {
			continue
		}
		if len(parts) == 0 {
			startMs = frag.StartMs
		}
		parts = append(parts, text)
		endMs = frag.EndMs
		if sentenceEnd.MatchString(text) {
			flush()
		}
	}
	flush()
	return sentences
}

package asr_test

import (
	"math"
	"testing"

	"lectern/internal/asr"
)

func TestSyntheticSentencesCoverDuration(t *testing.T) {
	sentences := asr.SyntheticSentences(60, 5, 3)
	if len(sentences) != 12 {
		t.Fatalf("expected 12 sentences for 60s at 5s each, got %d", len(sentences))
	}
	if sentences[0].Start != 0 {
		t.Fatalf("first sentence starts at %v", sentences[0].Start)
	}
	last := sentences[len(sentences)-1]
	if last.End != 60 {
		t.Fatalf("last sentence ends at %v, want 60", last.End)
	}
	for i := 1; i < len(sentences); i++ {
		if math.Abs(sentences[i].Start-sentences[i-1].End) > 1e-9 {
			t.Fatalf("gap between sentence %d and %d", i-1, i)
		}
	}
	for _, s := range sentences {
		if s.ChapterIndex != 3 {
			t.Fatalf("chapter index not carried: %d", s.ChapterIndex)
		}
	}
}

func TestSyntheticSentencesShortChapter(t *testing.T) {
	sentences := asr.SyntheticSentences(2.5, 5, 0)
	if len(sentences) != 1 {
		t.Fatalf("expected 1 sentence for short chapter, got %d", len(sentences))
	}
	if sentences[0].Start != 0 || sentences[0].End != 2.5 {
		t.Fatalf("unexpected span %v..%v", sentences[0].Start, sentences[0].End)
	}
}

func TestSyntheticSentencesZeroDuration(t *testing.T) {
	if got := asr.SyntheticSentences(0, 5, 0); got != nil {
		t.Fatalf("expected nil for zero duration, got %v", got)
	}
}

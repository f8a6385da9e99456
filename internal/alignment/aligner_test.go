package alignment_test

import (
	"math"
	"testing"

	"lectern/internal/alignment"
	"lectern/internal/logging"
	"lectern/internal/textextract"
	"lectern/internal/transcripts"
)

func defaultThresholds() alignment.Thresholds {
	return alignment.Thresholds{Match: 0.7, Interpolated: 0.5, Synthetic: 0.3}
}

func newAligner() *alignment.Aligner {
	return alignment.NewAligner(defaultThresholds(), logging.NewNop())
}

func doc(sentences ...textextract.Sentence) *textextract.Document {
	return &textextract.Document{Path: "book.pdf", PageCount: 1, Sentences: sentences}
}

func docSentence(text string, page, order int) textextract.Sentence {
	return textextract.Sentence{Text: text, Page: page, Order: order}
}

func spoken(text string, start, end float64) transcripts.Sentence {
	return transcripts.Sentence{Text: text, GlobalStart: start, GlobalEnd: end}
}

func TestAlignMatchesExactSentences(t *testing.T) {
	transcript := []transcripts.Sentence{
		spoken("Call me Ishmael tonight.", 0, 3),
		spoken("Some years ago, never mind how long precisely.", 3, 7),
	}
	d := doc(
		docSentence("Call me Ishmael tonight.", 1, 0),
		docSentence("Some years ago—never mind how long precisely.", 1, 1),
	)

	result, err := newAligner().Align(t.Context(), "moby", d, transcript, false, 7)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	for i, s := range result.Sentences {
		if s.AlignmentType != alignment.TypeMatched {
			t.Fatalf("sentence %d not matched: %+v", i, s)
		}
	}
	first := result.Sentences[0]
	if first.Start != 0 || first.End != 3 {
		t.Fatalf("unexpected span %v..%v", first.Start, first.End)
	}
	if first.Confidence < 0.99 {
		t.Fatalf("exact match should have confidence near 1, got %v", first.Confidence)
	}
	if result.Quality != 100 {
		t.Fatalf("expected quality 100, got %d", result.Quality)
	}
}

func TestAlignToleratesRecognitionNoise(t *testing.T) {
	// Recognizer misheard a couple of words; similarity stays above 0.7.
	transcript := []transcripts.Sentence{
		spoken("It is a truth universally acknowledged that a single man", 10, 15),
	}
	d := doc(docSentence("It is a truth universally acknowledged, that a single men", 1, 0))

	result, err := newAligner().Align(t.Context(), "pride", d, transcript, false, 15)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	s := result.Sentences[0]
	if s.AlignmentType != alignment.TypeMatched {
		t.Fatalf("noisy sentence should still match: %+v", s)
	}
	if s.Confidence >= 1 || s.Confidence < 0.7 {
		t.Fatalf("confidence outside expected range: %v", s.Confidence)
	}
}

func TestAlignConsumesEachTranscriptSentenceOnce(t *testing.T) {
	transcript := []transcripts.Sentence{
		spoken("And so it goes on forever.", 5, 8),
	}
	d := doc(
		docSentence("And so it goes on forever.", 1, 0),
		docSentence("And so it goes on forever.", 1, 1),
	)

	result, err := newAligner().Align(t.Context(), "vonnegut", d, transcript, false, 8)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	matched := 0
	for _, s := range result.Sentences {
		if s.AlignmentType == alignment.TypeMatched {
			matched++
		}
	}
	if matched != 1 {
		t.Fatalf("a transcript sentence backed %d document sentences", matched)
	}
}

func TestAlignInterpolatesBracketedGaps(t *testing.T) {
	transcript := []transcripts.Sentence{
		spoken("The first sentence here is spoken.", 0, 4),
		spoken("The final sentence here is spoken.", 10, 14),
	}
	d := doc(
		docSentence("The first sentence here is spoken.", 1, 0),
		docSentence("Something the narrator skipped entirely.", 1, 1),
		docSentence("Another passage nowhere in the audio.", 1, 2),
		docSentence("The final sentence here is spoken.", 1, 3),
	)

	result, err := newAligner().Align(t.Context(), "gaps", d, transcript, false, 14)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	second, third := result.Sentences[1], result.Sentences[2]
	if second.AlignmentType != alignment.TypeInterpolated || third.AlignmentType != alignment.TypeInterpolated {
		t.Fatalf("bracketed gap not interpolated: %+v %+v", second, third)
	}
	// Gap runs from 4s to 10s, split in two.
	if second.Start != 4 || math.Abs(second.End-7) > 1e-9 {
		t.Fatalf("unexpected first interpolated span %v..%v", second.Start, second.End)
	}
	if math.Abs(third.Start-7) > 1e-9 || math.Abs(third.End-10) > 1e-9 {
		t.Fatalf("unexpected second interpolated span %v..%v", third.Start, third.End)
	}
	if second.Confidence != 0.5 {
		t.Fatalf("interpolated confidence %v, want 0.5", second.Confidence)
	}
	if result.Quality != 50 {
		t.Fatalf("expected quality 50, got %d", result.Quality)
	}
	if result.MatchedCount != 2 || result.TotalCount != 4 {
		t.Fatalf("unexpected counts: matched %d of %d", result.MatchedCount, result.TotalCount)
	}
	if result.AverageConfidence <= 0 || result.AverageConfidence > 1 {
		t.Fatalf("average confidence out of range: %v", result.AverageConfidence)
	}
}

func TestAlignDoesNotInterpolateAcrossPages(t *testing.T) {
	transcript := []transcripts.Sentence{
		spoken("The first sentence here is spoken.", 0, 4),
		spoken("The final sentence here is spoken.", 10, 14),
	}
	d := doc(
		docSentence("The first sentence here is spoken.", 1, 0),
		docSentence("Something skipped at the page bottom.", 1, 1),
		docSentence("Something skipped at the next page top.", 2, 0),
		docSentence("The final sentence here is spoken.", 2, 1),
	)

	result, err := newAligner().Align(t.Context(), "pagegap", d, transcript, false, 14)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	for _, i := range []int{1, 2} {
		if s := result.Sentences[i]; s.AlignmentType != alignment.TypeUnmatched {
			t.Fatalf("run spanning pages must stay unmatched: %+v", s)
		}
	}
}

func TestAlignLeavesUnbracketedRunsUnmatched(t *testing.T) {
	transcript := []transcripts.Sentence{
		spoken("Only the middle sentence is spoken.", 5, 9),
	}
	d := doc(
		docSentence("A preface the narrator never reads.", 1, 0),
		docSentence("Only the middle sentence is spoken.", 1, 1),
		docSentence("An appendix the narrator never reads.", 1, 2),
	)

	result, err := newAligner().Align(t.Context(), "edges", d, transcript, false, 9)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if result.Sentences[0].AlignmentType != alignment.TypeUnmatched {
		t.Fatalf("leading run must stay unmatched: %+v", result.Sentences[0])
	}
	if result.Sentences[2].AlignmentType != alignment.TypeUnmatched {
		t.Fatalf("trailing run must stay unmatched: %+v", result.Sentences[2])
	}
}

func TestAlignMatchesShortSentences(t *testing.T) {
	transcript := []transcripts.Sentence{
		spoken("Yes indeed.", 0, 1),
	}
	d := doc(docSentence("Yes indeed.", 1, 0))

	result, err := newAligner().Align(t.Context(), "short", d, transcript, false, 1)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	s := result.Sentences[0]
	if s.AlignmentType != alignment.TypeMatched {
		t.Fatalf("two-word sentence should match via its short key: %+v", s)
	}
	if s.Confidence < 0.99 {
		t.Fatalf("identical text should score near 1, got %v", s.Confidence)
	}
}

func TestAlignSkipsTinySentences(t *testing.T) {
	transcript := []transcripts.Sentence{
		spoken("No.", 0, 1),
	}
	d := doc(docSentence("No.", 1, 0))

	result, err := newAligner().Align(t.Context(), "tiny", d, transcript, false, 1)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if result.Sentences[0].AlignmentType != alignment.TypeUnmatched {
		t.Fatalf("sentences under three normalized characters must stay unmatched: %+v", result.Sentences[0])
	}
}

func TestAlignSyntheticTranscriptDistributesByTime(t *testing.T) {
	d := doc(
		docSentence("First sentence of the book text.", 1, 0),
		docSentence("Second sentence of the book text.", 1, 1),
		docSentence("Third sentence of the book text.", 1, 2),
		docSentence("Fourth sentence of the book text.", 1, 3),
	)

	result, err := newAligner().Align(t.Context(), "synth", d, nil, true, 120)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	for i, s := range result.Sentences {
		if s.AlignmentType != alignment.TypeTimeBased {
			t.Fatalf("sentence %d type %q, want time-based", i, s.AlignmentType)
		}
		if s.Confidence != 0.3 {
			t.Fatalf("sentence %d confidence %v, want 0.3", i, s.Confidence)
		}
	}
	if result.Sentences[1].Start != 30 || result.Sentences[1].End != 60 {
		t.Fatalf("uneven distribution: %v..%v", result.Sentences[1].Start, result.Sentences[1].End)
	}
	if last := result.Sentences[3]; last.End != 120 {
		t.Fatalf("last sentence must end at total duration, got %v", last.End)
	}
	if result.Quality != 0 {
		t.Fatalf("time-based alignment has no real matches; quality %d", result.Quality)
	}
	if !result.IsSynthetic {
		t.Fatal("result must be flagged synthetic")
	}
}

func TestAlignEstimatesPositions(t *testing.T) {
	transcript := []transcripts.Sentence{
		spoken("Sentence one on the page.", 0, 2),
		spoken("Sentence two on the page.", 2, 4),
	}
	d := doc(
		docSentence("Sentence one on the page.", 1, 0),
		docSentence("Sentence two on the page.", 1, 1),
	)

	result, err := newAligner().Align(t.Context(), "pos", d, transcript, false, 4)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	first, second := result.Sentences[0].Position, result.Sentences[1].Position
	if first.X != 72 || first.Y != 72 {
		t.Fatalf("first box should start at the margins, got %+v", first)
	}
	if first.Width != 612-144 {
		t.Fatalf("box width should span the printable area, got %v", first.Width)
	}
	// Two sentences split the printable height evenly.
	if math.Abs(first.Height-(792-144)/2.0) > 1e-9 {
		t.Fatalf("unexpected box height %v", first.Height)
	}
	if math.Abs(second.Y-(72+first.Height)) > 1e-9 {
		t.Fatalf("second box must stack below the first, got y=%v", second.Y)
	}
}

func TestAlignRejectsEmptyDocument(t *testing.T) {
	if _, err := newAligner().Align(t.Context(), "empty", doc(), nil, false, 0); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestResultSentenceAt(t *testing.T) {
	result := &alignment.Result{
		Sentences: []alignment.AlignedSentence{
			{Text: "one", Start: 0, End: 5, AlignmentType: alignment.TypeMatched},
			{Text: "skipped", AlignmentType: alignment.TypeUnmatched},
			{Text: "two", Start: 5, End: 9, AlignmentType: alignment.TypeMatched},
		},
	}
	if s := result.SentenceAt(6); s == nil || s.Text != "two" {
		t.Fatalf("expected sentence two at 6s, got %+v", s)
	}
	// Past the last span, the most recent sentence wins.
	if s := result.SentenceAt(30); s == nil || s.Text != "two" {
		t.Fatalf("expected trailing sentence at 30s, got %+v", s)
	}
}

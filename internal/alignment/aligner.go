package alignment

import (
	"context"
	"math"
	"time"

	"log/slog"

	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/textextract"
	"lectern/internal/textutil"
	"lectern/internal/transcripts"
)

// Thresholds tune the alignment engine.
type Thresholds struct {
	// Match is the minimum similarity for a fuzzy match to count.
	Match float64
	// Interpolated is the confidence assigned to gap-filled sentences.
	Interpolated float64
	// Synthetic is the confidence assigned to time-based distribution.
	Synthetic float64
}

// Aligner matches document sentences against a book transcript.
type Aligner struct {
	thresholds Thresholds
	logger     *slog.Logger
}

// NewAligner constructs an Aligner with the given thresholds.
func NewAligner(thresholds Thresholds, logger *slog.Logger) *Aligner {
	return &Aligner{
		thresholds: thresholds,
		logger:     logging.NewComponentLogger(logger, "alignment"),
	}
}

// Align maps every document sentence to a span of the book's audio. When the
// transcript is synthetic there is nothing real to match against, so the text
// is distributed evenly over the total duration instead.
func (a *Aligner) Align(ctx context.Context, bookID string, doc *textextract.Document, transcript []transcripts.Sentence, isSynthetic bool, totalDuration float64) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil || len(doc.Sentences) == 0 {
		return nil, services.Wrap(services.ErrValidation, "align", "align_book",
			"document has no sentences to align", nil)
	}

	result := &Result{
		BookID:        bookID,
		TotalDuration: totalDuration,
		IsSynthetic:   isSynthetic,
		CreatedAt:     time.Now().UTC(),
	}

	if isSynthetic {
		result.Sentences = a.distributeByTime(doc.Sentences, totalDuration)
	} else {
		result.Sentences = a.matchSentences(doc.Sentences, transcript)
		interpolateGaps(result.Sentences, a.thresholds.Interpolated)
	}
	estimatePositions(result.Sentences)
	summarize(result)

	a.logger.Info("alignment complete",
		logging.String("book_id", bookID),
		logging.Int("sentences", len(result.Sentences)),
		logging.Int("quality", result.Quality),
		logging.Bool("synthetic", isSynthetic),
	)
	return result, nil
}

// matchSentences runs the indexed fuzzy match. Each transcript sentence can
// back at most one document sentence.
func (a *Aligner) matchSentences(docSentences []textextract.Sentence, transcript []transcripts.Sentence) []AlignedSentence {
	idx := buildIndex(transcript)

	aligned := make([]AlignedSentence, len(docSentences))
	for i, ds := range docSentences {
		aligned[i] = AlignedSentence{
			Text:          ds.Text,
			Page:          ds.Page,
			Order:         ds.Order,
			AlignmentType: TypeUnmatched,
		}

		normalized := textutil.Normalize(ds.Text)
		if len(normalized) < minNormalizedLen {
			continue
		}
		key := textutil.LeadingWordsKey(ds.Text, minKeyWords)
		match, sim := idx.claim(key, normalized, a.thresholds.Match)
		if match == nil {
			continue
		}
		aligned[i].Start = match.GlobalStart
		aligned[i].End = match.GlobalEnd
		aligned[i].Confidence = sim
		aligned[i].AlignmentType = TypeMatched
	}
	return aligned
}

// interpolateGaps fills runs of unmatched sentences bracketed by matches,
// splitting the bracketed time span evenly. Only runs confined to a single
// page are filled; cross-page runs stay unmatched, as do leading and trailing
// runs, which have no bracket.
func interpolateGaps(sentences []AlignedSentence, confidence float64) {
	prev := -1
	for i := 0; i <= len(sentences); i++ {
		if i < len(sentences) && sentences[i].AlignmentType != TypeMatched {
			continue
		}
		if prev >= 0 && i-prev > 1 && i < len(sentences) && onePage(sentences[prev+1:i]) {
			gapStart := sentences[prev].End
			gapEnd := sentences[i].Start
			span := gapEnd - gapStart
			count := i - prev - 1
			if span > 0 {
				step := span / float64(count)
				for j := 0; j < count; j++ {
					s := &sentences[prev+1+j]
					s.Start = gapStart + float64(j)*step
					s.End = s.Start + step
					s.Confidence = confidence
					s.AlignmentType = TypeInterpolated
				}
			}
		}
		if i < len(sentences) {
			prev = i
		}
	}
}

// onePage reports whether every sentence in the run shares a page.
func onePage(run []AlignedSentence) bool {
	for _, s := range run[1:] {
		if s.Page != run[0].Page {
			return false
		}
	}
	return true
}

// distributeByTime spreads the document evenly over the audio duration.
func (a *Aligner) distributeByTime(docSentences []textextract.Sentence, totalDuration float64) []AlignedSentence {
	aligned := make([]AlignedSentence, len(docSentences))
	step := 0.0
	if len(docSentences) > 0 && totalDuration > 0 {
		step = totalDuration / float64(len(docSentences))
	}
	for i, ds := range docSentences {
		start := float64(i) * step
		end := start + step
		if i == len(docSentences)-1 && totalDuration > 0 {
			end = totalDuration
		}
		aligned[i] = AlignedSentence{
			Text:          ds.Text,
			Page:          ds.Page,
			Order:         ds.Order,
			Start:         start,
			End:           end,
			Confidence:    a.thresholds.Synthetic,
			AlignmentType: TypeTimeBased,
		}
	}
	return aligned
}

// summarize fills the aggregate fields. Quality is the percentage of
// sentences backed by a real match, rounded and clamped to [0, 100];
// interpolated and time-based sentences do not count toward it.
func summarize(result *Result) {
	result.TotalCount = len(result.Sentences)
	if result.TotalCount == 0 {
		return
	}
	var confidenceSum float64
	for _, s := range result.Sentences {
		confidenceSum += s.Confidence
		if s.AlignmentType == TypeMatched {
			result.MatchedCount++
		}
	}
	result.AverageConfidence = confidenceSum / float64(result.TotalCount)

	q := int(math.Round(float64(result.MatchedCount) / float64(result.TotalCount) * 100))
	if q < 0 {
		q = 0
	}
	if q > 100 {
		q = 100
	}
	result.Quality = q
}

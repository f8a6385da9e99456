package alignment

import "time"

// Alignment type labels recorded on each sentence.
const (
	TypeMatched      = "matched"
	TypeInterpolated = "interpolated"
	TypeTimeBased    = "time-based"
	TypeUnmatched    = "unmatched"
)

// Box is an estimated on-page bounding box in PDF points, origin top-left.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// AlignedSentence is one document sentence with the audio span it maps to.
type AlignedSentence struct {
	Text          string  `json:"text"`
	Page          int     `json:"page"`
	Order         int     `json:"order"`
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	Confidence    float64 `json:"confidence"`
	AlignmentType string  `json:"alignment_type"`
	Position      Box     `json:"position"`
}

// Result is the full alignment of a book's document against its audio.
type Result struct {
	BookID            string            `json:"book_id"`
	Sentences         []AlignedSentence `json:"sentences"`
	MatchedCount      int               `json:"matched_count"`
	TotalCount        int               `json:"total_count"`
	AverageConfidence float64           `json:"average_confidence"`
	Quality           int               `json:"quality"`
	TotalDuration     float64           `json:"total_duration"`
	IsSynthetic       bool              `json:"is_synthetic"`
	CreatedAt         time.Time         `json:"created_at"`
}

// SentenceAt returns the sentence being read at the given book time, or
// nil when the time falls outside every aligned span. Unmatched sentences
// carry no timing and are skipped.
func (r *Result) SentenceAt(seconds float64) *AlignedSentence {
	var best *AlignedSentence
	for i := range r.Sentences {
		s := &r.Sentences[i]
		if s.AlignmentType == TypeUnmatched {
			continue
		}
		if seconds >= s.Start && seconds < s.End {
			return s
		}
		if s.Start <= seconds && (best == nil || s.Start > best.Start) {
			best = s
		}
	}
	return best
}

package transcripts

import "time"

// Sentence is a time-coded span of recognized spoken text. Start and End are
// chapter-relative seconds; GlobalStart and GlobalEnd add the cumulative
// duration of all preceding chapters, placing the sentence on one continuous
// book-wide timeline.
type Sentence struct {
	Text         string  `json:"text"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	ChapterIndex int     `json:"chapterIndex"`
	GlobalStart  float64 `json:"globalStart,omitempty"`
	GlobalEnd    float64 `json:"globalEnd,omitempty"`
}

// ChapterTranscript is the cached transcription of one audio chapter.
type ChapterTranscript struct {
	BookID       string     `json:"bookId"`
	ChapterIndex int        `json:"chapterIndex"`
	Sentences    []Sentence `json:"sentences"`
	// IsSynthetic marks placeholder transcripts produced when the recognition
	// engine was unavailable. Set at creation time and carried through so
	// downstream consumers never have to sniff placeholder text.
	IsSynthetic bool      `json:"isSynthetic"`
	CreatedAt   time.Time `json:"createdAt"`
}

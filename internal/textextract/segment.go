package textextract

import (
	"strings"
	"unicode"
)

// Sentence is one printed sentence with its position in the document.
type Sentence struct {
	Text string `json:"text"`
	// Page is the 1-based page the sentence appears on.
	Page int `json:"page"`
	// Order is the 0-based index of the sentence within its page.
	Order int `json:"order"`
}

// Document is the extracted text of a book document.
type Document struct {
	Path      string     `json:"path"`
	PageCount int        `json:"page_count"`
	Sentences []Sentence `json:"sentences"`
}

// SegmentPages turns raw per-page text into ordered sentences. Page numbers
// are 1-based; sentence order restarts on each page.
func SegmentPages(pages []string) []Sentence {
	var sentences []Sentence
	for i, text := range pages {
		order := 0
		for _, s := range splitSentences(text) {
			sentences = append(sentences, Sentence{Text: s, Page: i + 1, Order: order})
			order++
		}
	}
	return sentences
}

// splitSentences breaks prose on terminal punctuation. A closing quote or
// bracket may trail the terminator; the break happens before the following
// whitespace. Line breaks inside a sentence collapse to single spaces.
func splitSentences(text string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	runes := []rune(strings.TrimSpace(text))
	flush := func() {
		s := strings.Join(strings.Fields(current.String()), " ")
		if s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i + 1
		closing := j < len(runes) && isClosing(runes[j])
		if closing {
			j++
		}
		if j >= len(runes) || unicode.IsSpace(runes[j]) {
			if closing {
				current.WriteRune(runes[i+1])
			}
			flush()
			i = j
		}
	}
	flush()
	return sentences
}

func isClosing(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’':
		return true
	}
	return false
}

package textutil

import (
	"regexp"
	"strings"
)

var nonAlphanumericPattern = regexp.MustCompile(`[^a-z0-9\s]+`)

// Normalize prepares text for comparison by lowercasing, removing punctuation,
// and collapsing runs of whitespace to single spaces.
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	stripped := nonAlphanumericPattern.ReplaceAllString(lowered, "")
	return strings.Join(strings.Fields(stripped), " ")
}

// Tokenize splits text into normalized words.
func Tokenize(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}

// LeadingWordsKey returns the first n normalized words joined by spaces,
// suitable as an index key. Text with fewer than n words yields all of them;
// empty text yields "".
func LeadingWordsKey(text string, n int) string {
	words := Tokenize(text)
	if len(words) == 0 || n <= 0 {
		return ""
	}
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// AlphanumericCount returns the number of ASCII letters and digits in text.
func AlphanumericCount(text string) int {
	count := 0
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			count++
		}
	}
	return count
}

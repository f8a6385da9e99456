package textextract_test

import (
	"errors"
	"strings"
	"testing"

	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/textextract"
)

func pagedExtractor(pages []string) *textextract.Extractor {
	return textextract.NewExtractor(100, logging.NewNop(),
		textextract.WithPageReader(func(string) ([]string, error) {
			return pages, nil
		}))
}

func TestExtractSegmentsPages(t *testing.T) {
	pages := []string{
		"It was a dark and stormy night. The rain fell in torrents, sweeping the streets of the city clean.",
		"A new page begins here! It carries two more sentences with plenty of prose to read aloud.",
	}
	extractor := pagedExtractor(pages)

	doc, err := extractor.Extract(t.Context(), "book.pdf")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if doc.PageCount != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.PageCount)
	}
	if len(doc.Sentences) != 4 {
		t.Fatalf("expected 4 sentences, got %d", len(doc.Sentences))
	}

	first := doc.Sentences[0]
	if first.Page != 1 || first.Order != 0 {
		t.Fatalf("unexpected position for first sentence: page %d order %d", first.Page, first.Order)
	}
	third := doc.Sentences[2]
	if third.Page != 2 || third.Order != 0 {
		t.Fatalf("sentence order must restart per page: page %d order %d", third.Page, third.Order)
	}
	if third.Text != "A new page begins here!" {
		t.Fatalf("unexpected sentence text %q", third.Text)
	}
}

func TestExtractCollapsesLineBreaks(t *testing.T) {
	pages := []string{
		"The sentence wraps\nacross several\nlines before ending properly. " + strings.Repeat("More text to clear the threshold. ", 5),
	}
	doc, err := pagedExtractor(pages).Extract(t.Context(), "book.pdf")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if doc.Sentences[0].Text != "The sentence wraps across several lines before ending properly." {
		t.Fatalf("line breaks not collapsed: %q", doc.Sentences[0].Text)
	}
}

func TestExtractRejectsImageOnlyDocuments(t *testing.T) {
	// Under 100 alphanumeric characters across all pages.
	extractor := pagedExtractor([]string{"", "scan artifacts", ""})
	_, err := extractor.Extract(t.Context(), "scanned.pdf")
	if !errors.Is(err, services.ErrUnsupportedDocument) {
		t.Fatalf("expected ErrUnsupportedDocument, got %v", err)
	}
}

func TestExtractWrapsReaderErrors(t *testing.T) {
	extractor := textextract.NewExtractor(100, logging.NewNop(),
		textextract.WithPageReader(func(string) ([]string, error) {
			return nil, errors.New("corrupt xref table")
		}))
	_, err := extractor.Extract(t.Context(), "broken.pdf")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSegmentPagesHandlesQuotedTerminators(t *testing.T) {
	sentences := textextract.SegmentPages([]string{`"Is anyone there?" she asked. Nobody answered.`})
	if len(sentences) != 3 {
		t.Fatalf("expected 3 sentences, got %d: %#v", len(sentences), sentences)
	}
	if sentences[0].Text != `"Is anyone there?"` {
		t.Fatalf("unexpected first sentence %q", sentences[0].Text)
	}
}

func TestSegmentPagesKeepsApostrophesAfterAbbreviations(t *testing.T) {
	sentences := textextract.SegmentPages([]string{"He holds a Ph.D.'s worth of letters. Fine."})
	if len(sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %#v", len(sentences), sentences)
	}
	if sentences[0].Text != "He holds a Ph.D.'s worth of letters." {
		t.Fatalf("apostrophe mangled: %q", sentences[0].Text)
	}
}

func TestSegmentPagesKeepsDecimalsIntact(t *testing.T) {
	sentences := textextract.SegmentPages([]string{"The pi constant is 3.14159 to five places."})
	if len(sentences) != 1 {
		t.Fatalf("decimal point split a sentence: %#v", sentences)
	}
}

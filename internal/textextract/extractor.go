package textextract

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/ledongthuc/pdf"

	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/textutil"
)

// Extractor reads book documents and segments them into sentences.
type Extractor struct {
	minTextChars int
	readPages    func(path string) ([]string, error)
	logger       *slog.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithPageReader substitutes the PDF page reader. Tests inject canned page
// text instead of real PDF files.
func WithPageReader(read func(path string) ([]string, error)) Option {
	return func(e *Extractor) { e.readPages = read }
}

// NewExtractor constructs an Extractor. minTextChars is the alphanumeric
// character count below which a document is treated as image-only.
func NewExtractor(minTextChars int, logger *slog.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		minTextChars: minTextChars,
		readPages:    readPDFPages,
		logger:       logging.NewComponentLogger(logger, "textextract"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the document at path and returns its sentences. Documents
// whose total alphanumeric character count falls below the configured
// threshold are rejected with services.ErrUnsupportedDocument.
func (e *Extractor) Extract(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, err := e.readPages(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "extract", "read_document",
			fmt.Sprintf("reading %s", path), err)
	}

	total := 0
	for _, page := range pages {
		total += textutil.AlphanumericCount(page)
	}
	if total < e.minTextChars {
		return nil, services.Wrap(services.ErrUnsupportedDocument, "extract", "classify_document",
			fmt.Sprintf("document %s has %d alphanumeric characters (minimum %d); likely image-only", path, total, e.minTextChars), nil)
	}

	doc := &Document{
		Path:      path,
		PageCount: len(pages),
		Sentences: SegmentPages(pages),
	}
	e.logger.Info("document extracted",
		logging.String("path", path),
		logging.Int("pages", doc.PageCount),
		logging.Int("sentences", len(doc.Sentences)),
	)
	return doc, nil
}

// readPDFPages extracts plain text from every page of a PDF.
func readPDFPages(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

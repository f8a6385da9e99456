// Package extracting is the pipeline stage that pulls sentence text out of a
// book's document before transcription begins. Books without a document pass
// through untouched.
package extracting

import (
	"context"
	"fmt"
	"os"

	"log/slog"

	"lectern/internal/books"
	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/queue"
	"lectern/internal/services"
	"lectern/internal/stage"
	"lectern/internal/textextract"
)

// Extracting validates and extracts the book document for a job.
type Extracting struct {
	cfg       *config.Config
	resolver  books.Resolver
	extractor *textextract.Extractor
	logger    *slog.Logger
}

// New constructs the extraction stage handler.
func New(cfg *config.Config, resolver books.Resolver, extractor *textextract.Extractor, logger *slog.Logger) *Extracting {
	return &Extracting{
		cfg:       cfg,
		resolver:  resolver,
		extractor: extractor,
		logger:    logging.NewComponentLogger(logger, "extracting"),
	}
}

func (e *Extracting) Prepare(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, e.logger)
	job.SetProgress(0, "Preparing text extraction")
	job.ErrorMessage = ""

	book, err := e.resolver.Resolve(ctx, job.SubjectID)
	if err != nil {
		return services.Wrap(services.ErrValidation, "extracting", "resolve book",
			fmt.Sprintf("Unknown book %q; check the library directory", job.SubjectID), err)
	}
	if !book.HasDocument() {
		logger.Info("book has no document, extraction will be skipped")
		return nil
	}
	if _, err := os.Stat(book.DocumentPath); err != nil {
		return services.Wrap(services.ErrValidation, "extracting", "validate document",
			fmt.Sprintf("Document %s is not readable", book.DocumentPath), err)
	}
	return nil
}

func (e *Extracting) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, e.logger)

	book, err := e.resolver.Resolve(ctx, job.SubjectID)
	if err != nil {
		return services.Wrap(services.ErrValidation, "extracting", "resolve book",
			fmt.Sprintf("Unknown book %q", job.SubjectID), err)
	}
	if !book.HasDocument() {
		job.SetProgress(100, "No document to extract")
		return nil
	}

	doc, err := e.extractor.Extract(ctx, book.DocumentPath)
	if err != nil {
		return err
	}
	logger.Info("document text extracted",
		logging.Int("pages", doc.PageCount),
		logging.Int("sentences", len(doc.Sentences)),
	)
	job.SetProgress(100, fmt.Sprintf("Extracted %d sentences from %d pages", len(doc.Sentences), doc.PageCount))
	return nil
}

func (e *Extracting) HealthCheck(ctx context.Context) stage.Health {
	if _, err := os.Stat(e.cfg.Paths.LibraryDir); err != nil {
		return stage.Unhealthy("extracting", fmt.Sprintf("library directory unavailable: %v", err))
	}
	return stage.Healthy("extracting")
}

// Package aligning is the pipeline stage that matches a book's printed text
// to its audio timeline and persists the result.
package aligning

import (
	"context"
	"encoding/json"
	"fmt"

	"log/slog"

	"lectern/internal/alignment"
	"lectern/internal/asr"
	"lectern/internal/books"
	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/queue"
	"lectern/internal/services"
	"lectern/internal/stage"
	"lectern/internal/textextract"
	"lectern/internal/transcripts"
)

// Aligning produces and stores the sentence alignment for a job's book.
// Transcription results are read back through the recognizer's chapter cache,
// so re-running after a crash repeats no audio work.
type Aligning struct {
	cfg         *config.Config
	resolver    books.Resolver
	extractor   *textextract.Extractor
	recognizer  *asr.Recognizer
	aligner     *alignment.Aligner
	transcripts *transcripts.Store
	logger      *slog.Logger
}

// New constructs the alignment stage handler.
func New(cfg *config.Config, resolver books.Resolver, extractor *textextract.Extractor, recognizer *asr.Recognizer, aligner *alignment.Aligner, store *transcripts.Store, logger *slog.Logger) *Aligning {
	return &Aligning{
		cfg:         cfg,
		resolver:    resolver,
		extractor:   extractor,
		recognizer:  recognizer,
		aligner:     aligner,
		transcripts: store,
		logger:      logging.NewComponentLogger(logger, "aligning"),
	}
}

func (a *Aligning) Prepare(ctx context.Context, job *queue.Job) error {
	job.SetProgress(0, "Preparing alignment")
	job.ErrorMessage = ""
	if _, err := a.resolver.Resolve(ctx, job.SubjectID); err != nil {
		return services.Wrap(services.ErrValidation, "aligning", "resolve book",
			fmt.Sprintf("Unknown book %q", job.SubjectID), err)
	}
	return nil
}

func (a *Aligning) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, a.logger)

	book, err := a.resolver.Resolve(ctx, job.SubjectID)
	if err != nil {
		return services.Wrap(services.ErrValidation, "aligning", "resolve book",
			fmt.Sprintf("Unknown book %q", job.SubjectID), err)
	}
	if !book.HasDocument() {
		job.SetProgress(100, "No document; transcription finished without alignment")
		logger.Info("book has no document, skipping alignment")
		return nil
	}

	job.SetProgress(10, "Extracting document text")
	doc, err := a.extractor.Extract(ctx, book.DocumentPath)
	if err != nil {
		return err
	}

	job.SetProgress(30, "Loading transcript")
	transcript, err := a.recognizer.TranscribeBook(ctx, *book, nil)
	if err != nil {
		return err
	}

	job.SetProgress(60, "Aligning text to audio")
	result, err := a.aligner.Align(ctx, book.ID, doc, transcript.Sentences, transcript.IsSynthetic, book.TotalDuration())
	if err != nil {
		return err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode alignment: %w", err)
	}
	if err := a.transcripts.SaveAlignment(ctx, job.SubjectID, payload); err != nil {
		return fmt.Errorf("persist alignment: %w", err)
	}

	logger.Info("alignment stored",
		logging.Int("sentences", len(result.Sentences)),
		logging.Int("quality", result.Quality),
	)
	job.SetProgress(100, fmt.Sprintf("Aligned %d sentences, quality %d%%", len(result.Sentences), result.Quality))
	return nil
}

func (a *Aligning) HealthCheck(ctx context.Context) stage.Health {
	if a.transcripts == nil {
		return stage.Unhealthy("aligning", "transcript store unavailable")
	}
	return stage.Healthy("aligning")
}

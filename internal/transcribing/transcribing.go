// Package transcribing is the pipeline stage that turns a book's audio into
// timed sentence transcripts.
package transcribing

import (
	"context"
	"fmt"
	"os"

	"log/slog"

	"lectern/internal/asr"
	"lectern/internal/books"
	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/queue"
	"lectern/internal/services"
	"lectern/internal/stage"
)

// Transcribing runs speech recognition over every chapter of a job's book.
type Transcribing struct {
	cfg        *config.Config
	resolver   books.Resolver
	recognizer *asr.Recognizer
	store      *queue.Store
	logger     *slog.Logger
}

// New constructs the transcription stage handler.
func New(cfg *config.Config, resolver books.Resolver, recognizer *asr.Recognizer, store *queue.Store, logger *slog.Logger) *Transcribing {
	return &Transcribing{
		cfg:        cfg,
		resolver:   resolver,
		recognizer: recognizer,
		store:      store,
		logger:     logging.NewComponentLogger(logger, "transcribing"),
	}
}

func (t *Transcribing) Prepare(ctx context.Context, job *queue.Job) error {
	job.SetProgress(0, "Preparing transcription")
	job.ErrorMessage = ""

	book, err := t.resolver.Resolve(ctx, job.SubjectID)
	if err != nil {
		return services.Wrap(services.ErrValidation, "transcribing", "resolve book",
			fmt.Sprintf("Unknown book %q", job.SubjectID), err)
	}
	for i, chapter := range book.Chapters {
		if _, err := os.Stat(chapter.AudioPath); err != nil {
			return services.Wrap(services.ErrValidation, "transcribing", "validate audio",
				fmt.Sprintf("Chapter %d audio %s is not readable", i+1, chapter.AudioPath), err)
		}
	}
	return nil
}

func (t *Transcribing) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, t.logger)

	book, err := t.resolver.Resolve(ctx, job.SubjectID)
	if err != nil {
		return services.Wrap(services.ErrValidation, "transcribing", "resolve book",
			fmt.Sprintf("Unknown book %q", job.SubjectID), err)
	}

	progress := func(percent float64, message string) {
		job.SetProgress(percent, message)
		if err := t.store.UpdateProgress(ctx, job); err != nil {
			logger.Warn("failed to persist progress", logging.Error(err))
		}
	}

	transcript, err := t.recognizer.TranscribeBook(ctx, *book, progress)
	if err != nil {
		return err
	}
	logger.Info("book transcribed",
		logging.Int("sentences", len(transcript.Sentences)),
		logging.Bool("synthetic", transcript.IsSynthetic),
	)
	return nil
}

func (t *Transcribing) HealthCheck(ctx context.Context) stage.Health {
	if _, err := os.Stat(t.cfg.Paths.CacheDir); err != nil {
		return stage.Unhealthy("transcribing", fmt.Sprintf("cache directory unavailable: %v", err))
	}
	return stage.Healthy("transcribing")
}

package asr

import (
	"context"
	"errors"
	"fmt"

	"log/slog"

	"lectern/internal/books"
	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/transcripts"
)

// BookTranscript aggregates the sentences of every chapter of a book on a
// single book-level timeline. IsSynthetic is set only when every chapter fell
// back to synthetic sentences.
type BookTranscript struct {
	BookID      string
	Sentences   []transcripts.Sentence
	IsSynthetic bool
}

// ProgressFunc receives coarse progress updates during long operations.
type ProgressFunc func(percent float64, message string)

// Recognizer turns book audio into timed sentence transcripts, caching
// per-chapter results in the transcript store.
type Recognizer struct {
	provider *Provider
	store    *transcripts.Store
	model    string
	sentSecs float64
	logger   *slog.Logger
}

// NewRecognizer constructs a Recognizer. sentenceSeconds controls the pacing
// of synthetic fallback sentences.
func NewRecognizer(provider *Provider, store *transcripts.Store, model string, sentenceSeconds float64, logger *slog.Logger) *Recognizer {
	return &Recognizer{
		provider: provider,
		store:    store,
		model:    model,
		sentSecs: sentenceSeconds,
		logger:   logging.NewComponentLogger(logger, "recognizer"),
	}
}

// TranscribeChapter produces the transcript for one chapter. When the
// recognition engine is unavailable, or produces no sentences, the chapter
// gets synthetic sentences instead of failing the whole book.
func (r *Recognizer) TranscribeChapter(ctx context.Context, bookID string, chapterIndex int, chapter books.Chapter) (*transcripts.ChapterTranscript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sentences, synthetic, err := r.recognize(ctx, chapterIndex, chapter)
	if err != nil {
		return nil, err
	}
	return &transcripts.ChapterTranscript{
		BookID:       bookID,
		ChapterIndex: chapterIndex,
		Sentences:    sentences,
		IsSynthetic:  synthetic,
	}, nil
}

func (r *Recognizer) recognize(ctx context.Context, chapterIndex int, chapter books.Chapter) ([]transcripts.Sentence, bool, error) {
	engine, err := r.provider.Engine(ctx, r.model)
	if err != nil {
		if errors.Is(err, ErrEngineUnavailable) {
			r.logger.Warn("engine unavailable, using synthetic transcript",
				logging.Int(logging.FieldChapterIndex, chapterIndex),
			)
			return SyntheticSentences(chapter.DurationSeconds, r.sentSecs, chapterIndex), true, nil
		}
		return nil, false, err
	}

	fragments, err := engine.Transcribe(ctx, chapter.AudioPath)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, false, err
		}
		r.logger.Warn("transcription failed, using synthetic transcript",
			logging.Int(logging.FieldChapterIndex, chapterIndex),
			logging.Error(err),
		)
		return SyntheticSentences(chapter.DurationSeconds, r.sentSecs, chapterIndex), true, nil
	}

	sentences := SegmentFragments(fragments, chapterIndex)
	if len(sentences) == 0 {
		return SyntheticSentences(chapter.DurationSeconds, r.sentSecs, chapterIndex), true, nil
	}
	return sentences, false, nil
}

// TranscribeBook assembles the full book transcript. Chapters already in the
// transcript store are reused without invoking the engine; newly transcribed
// chapters are persisted. Sentence times are shifted onto the book timeline
// by the cumulative duration of all preceding chapters.
func (r *Recognizer) TranscribeBook(ctx context.Context, book books.Book, progress ProgressFunc) (*BookTranscript, error) {
	total := len(book.Chapters)
	if total == 0 {
		return nil, services.Wrap(services.ErrValidation, "transcribe", "transcribe_book",
			fmt.Sprintf("book %s has no chapters", book.ID), nil)
	}

	result := &BookTranscript{BookID: book.ID, IsSynthetic: true}
	var offset float64

	for idx, chapter := range book.Chapters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(float64(idx)/float64(total)*100.0,
				fmt.Sprintf("transcribing chapter %d of %d", idx+1, total))
		}

		ct, err := r.store.GetChapter(ctx, book.ID, idx)
		if err != nil {
			return nil, err
		}
		if ct == nil {
			ct, err = r.TranscribeChapter(ctx, book.ID, idx, chapter)
			if err != nil {
				return nil, err
			}
			if err := r.store.SaveChapter(ctx, ct); err != nil && !errors.Is(err, transcripts.ErrChapterExists) {
				return nil, err
			}
			r.logger.Info("chapter transcribed",
				logging.String("book_id", book.ID),
				logging.Int(logging.FieldChapterIndex, idx),
				logging.Int("sentences", len(ct.Sentences)),
				logging.Bool("synthetic", ct.IsSynthetic),
			)
		} else {
			r.logger.Debug("chapter transcript cached",
				logging.String("book_id", book.ID),
				logging.Int(logging.FieldChapterIndex, idx),
			)
		}

		if !ct.IsSynthetic {
			result.IsSynthetic = false
		}
		for _, s := range ct.Sentences {
			s.GlobalStart = offset + s.Start
			s.GlobalEnd = offset + s.End
			result.Sentences = append(result.Sentences, s)
		}
		offset += chapter.DurationSeconds
	}

	if progress != nil {
		progress(100.0, "transcription complete")
	}
	return result, nil
}

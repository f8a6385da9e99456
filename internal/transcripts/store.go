package transcripts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"lectern/internal/config"
)

// ErrChapterExists indicates a transcript is already cached for the chapter.
var ErrChapterExists = errors.New("chapter transcript already cached")

const transcriptSchema = `
CREATE TABLE IF NOT EXISTS chapter_transcripts (
    book_id TEXT NOT NULL,
    chapter_index INTEGER NOT NULL,
    sentences_json TEXT NOT NULL,
    is_synthetic INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    PRIMARY KEY (book_id, chapter_index)
);

CREATE TABLE IF NOT EXISTS alignments (
    subject_id TEXT PRIMARY KEY,
    payload_json TEXT NOT NULL,
    created_at TEXT NOT NULL
);
`

// Store manages transcript and alignment persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the transcript database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.CacheDir, "transcripts.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout = 5000"} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(transcriptSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create transcript schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveChapter caches a newly computed chapter transcript. Cached transcripts
// are immutable; writing a duplicate key returns ErrChapterExists.
func (s *Store) SaveChapter(ctx context.Context, transcript *ChapterTranscript) error {
	if transcript == nil {
		return errors.New("transcript is required")
	}
	if strings.TrimSpace(transcript.BookID) == "" {
		return errors.New("book id is required")
	}
	if transcript.ChapterIndex < 0 {
		return errors.New("chapter index must not be negative")
	}

	sentences, err := json.Marshal(transcript.Sentences)
	if err != nil {
		return fmt.Errorf("marshal sentences: %w", err)
	}
	if transcript.CreatedAt.IsZero() {
		transcript.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO chapter_transcripts (book_id, chapter_index, sentences_json, is_synthetic, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		transcript.BookID,
		transcript.ChapterIndex,
		string(sentences),
		boolToInt(transcript.IsSynthetic),
		transcript.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "PRIMARY") {
			return fmt.Errorf("%w: %s chapter %d", ErrChapterExists, transcript.BookID, transcript.ChapterIndex)
		}
		return fmt.Errorf("save chapter transcript: %w", err)
	}
	return nil
}

// GetChapter returns the cached transcript for (bookID, chapterIndex), or nil
// on a cache miss.
func (s *Store) GetChapter(ctx context.Context, bookID string, chapterIndex int) (*ChapterTranscript, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT sentences_json, is_synthetic, created_at
         FROM chapter_transcripts WHERE book_id = ? AND chapter_index = ?`,
		bookID, chapterIndex,
	)

	var (
		sentencesJSON string
		isSynthetic   int
		createdAt     string
	)
	if err := row.Scan(&sentencesJSON, &isSynthetic, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chapter transcript: %w", err)
	}

	transcript := &ChapterTranscript{
		BookID:       bookID,
		ChapterIndex: chapterIndex,
		IsSynthetic:  isSynthetic != 0,
	}
	if err := json.Unmarshal([]byte(sentencesJSON), &transcript.Sentences); err != nil {
		return nil, fmt.Errorf("parse cached sentences: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		transcript.CreatedAt = t
	}
	return transcript, nil
}

// InvalidateBook removes every cached chapter transcript for a book.
func (s *Store) InvalidateBook(ctx context.Context, bookID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chapter_transcripts WHERE book_id = ?`, bookID)
	if err != nil {
		return 0, fmt.Errorf("invalidate book transcripts: %w", err)
	}
	return res.RowsAffected()
}

// SaveAlignment persists the alignment payload for a subject, replacing any
// previous record first so a re-run never leaves a stale result behind.
func (s *Store) SaveAlignment(ctx context.Context, subjectID string, payload json.RawMessage) error {
	if strings.TrimSpace(subjectID) == "" {
		return errors.New("subject id is required")
	}
	if len(payload) == 0 {
		return errors.New("alignment payload is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin alignment tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM alignments WHERE subject_id = ?`, subjectID); err != nil {
		return fmt.Errorf("delete previous alignment: %w", err)
	}
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO alignments (subject_id, payload_json, created_at) VALUES (?, ?, ?)`,
		subjectID,
		string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("save alignment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit alignment: %w", err)
	}
	return nil
}

// GetAlignment returns the persisted alignment payload for a subject, or nil
// when none exists.
func (s *Store) GetAlignment(ctx context.Context, subjectID string) (json.RawMessage, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload_json FROM alignments WHERE subject_id = ?`, subjectID)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alignment: %w", err)
	}
	return json.RawMessage(payload), nil
}

// DeleteAlignment removes a subject's alignment record if present.
func (s *Store) DeleteAlignment(ctx context.Context, subjectID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM alignments WHERE subject_id = ?`, subjectID); err != nil {
		return fmt.Errorf("delete alignment: %w", err)
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

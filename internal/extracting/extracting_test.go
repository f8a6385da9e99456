package extracting_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lectern/internal/books"
	"lectern/internal/config"
	"lectern/internal/extracting"
	"lectern/internal/logging"
	"lectern/internal/queue"
	"lectern/internal/services"
	"lectern/internal/testsupport"
	"lectern/internal/textextract"
)

func writeManifest(t *testing.T, cfg *config.Config, book books.Book) {
	t.Helper()
	if err := os.MkdirAll(cfg.Paths.LibraryDir, 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}
	data, err := json.Marshal(book)
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Paths.LibraryDir, book.ID+".json"), data, 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}

func documentBook(t *testing.T, cfg *config.Config, id string, withDocument bool) books.Book {
	t.Helper()
	book := books.Book{
		ID:    id,
		Title: "A Book",
		Chapters: []books.Chapter{
			{Title: "One", AudioPath: filepath.Join(t.TempDir(), "ch1.wav"), DurationSeconds: 60},
		},
	}
	if withDocument {
		docPath := filepath.Join(t.TempDir(), "book.pdf")
		if err := os.WriteFile(docPath, []byte("%PDF-fake"), 0o644); err != nil {
			t.Fatalf("write document: %v", err)
		}
		book.DocumentPath = docPath
	}
	writeManifest(t, cfg, book)
	return book
}

func newHandler(cfg *config.Config, pages []string) *extracting.Extracting {
	extractor := textextract.NewExtractor(cfg.Extraction.MinTextChars, logging.NewNop(),
		textextract.WithPageReader(func(string) ([]string, error) { return pages, nil }))
	resolver := books.NewManifestResolver(cfg.Paths.LibraryDir)
	return extracting.New(cfg, resolver, extractor, logging.NewNop())
}

func TestExecuteExtractsDocumentSentences(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	documentBook(t, cfg, "dorian", true)
	handler := newHandler(cfg, []string{
		"The artist is the creator of beautiful things. To reveal art and conceal the artist is art's aim.",
	})

	job := &queue.Job{ID: 1, SubjectID: "dorian", Status: queue.StatusExtracting}
	if err := handler.Prepare(t.Context(), job); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := handler.Execute(t.Context(), job); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if job.Progress != 100 {
		t.Fatalf("expected progress 100, got %v", job.Progress)
	}
	if !strings.Contains(job.StatusMessage, "Extracted 2 sentences from 1 pages") {
		t.Fatalf("unexpected status message %q", job.StatusMessage)
	}
}

func TestExecuteSkipsBooksWithoutDocument(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	documentBook(t, cfg, "plain", false)
	handler := newHandler(cfg, nil)

	job := &queue.Job{ID: 1, SubjectID: "plain", Status: queue.StatusExtracting}
	if err := handler.Prepare(t.Context(), job); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := handler.Execute(t.Context(), job); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if job.StatusMessage != "No document to extract" {
		t.Fatalf("unexpected status message %q", job.StatusMessage)
	}
}

func TestPrepareRejectsUnknownBook(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.LibraryDir, 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}
	handler := newHandler(cfg, nil)

	job := &queue.Job{ID: 1, SubjectID: "nowhere"}
	err := handler.Prepare(t.Context(), job)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if msg := services.UserMessage(err); !strings.Contains(msg, `Unknown book "nowhere"`) {
		t.Fatalf("unexpected user message %q", msg)
	}
}

func TestExecuteFailsOnImageOnlyDocument(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	documentBook(t, cfg, "scans", true)
	handler := newHandler(cfg, []string{"", "", ""})

	job := &queue.Job{ID: 1, SubjectID: "scans", Status: queue.StatusExtracting}
	err := handler.Execute(t.Context(), job)
	if !errors.Is(err, services.ErrUnsupportedDocument) {
		t.Fatalf("expected unsupported-document error, got %v", err)
	}
}

func TestHealthCheckRequiresLibraryDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	handler := newHandler(cfg, nil)

	if health := handler.HealthCheck(t.Context()); health.Ready {
		t.Fatal("expected unhealthy before library dir exists")
	}
	if err := os.MkdirAll(cfg.Paths.LibraryDir, 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}
	if health := handler.HealthCheck(t.Context()); !health.Ready {
		t.Fatalf("expected healthy, got %+v", health)
	}
}

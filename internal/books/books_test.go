package books_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lectern/internal/books"
)

func writeManifest(t *testing.T, dir, subject, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, subject+".json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}

func TestResolveReadsManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "moby-dick", `{
		"title": "Moby Dick",
		"chapters": [
			{"title": "Loomings", "audioPath": "/audio/ch01.wav", "durationSeconds": 1800},
			{"title": "The Carpet-Bag", "audioPath": "/audio/ch02.wav", "durationSeconds": 1500}
		],
		"documentPath": "/docs/moby-dick.pdf"
	}`)

	book, err := books.NewManifestResolver(dir).Resolve(context.Background(), "moby-dick")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if book.ID != "moby-dick" {
		t.Fatalf("expected id defaulted from subject, got %q", book.ID)
	}
	if len(book.Chapters) != 2 {
		t.Fatalf("unexpected chapter count: %d", len(book.Chapters))
	}
	if book.TotalDuration() != 3300 {
		t.Fatalf("unexpected total duration: %v", book.TotalDuration())
	}
	if !book.HasDocument() {
		t.Fatal("expected document attached")
	}
}

func TestResolveUnknownSubject(t *testing.T) {
	resolver := books.NewManifestResolver(t.TempDir())
	if _, err := resolver.Resolve(context.Background(), "nope"); !errors.Is(err, books.ErrUnknownSubject) {
		t.Fatalf("expected ErrUnknownSubject, got %v", err)
	}
}

func TestResolveRejectsPathEscapes(t *testing.T) {
	resolver := books.NewManifestResolver(t.TempDir())
	if _, err := resolver.Resolve(context.Background(), "../etc/passwd"); err == nil {
		t.Fatal("expected error for path escape")
	}
}

func TestResolveRejectsInvalidManifests(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "empty", `{"title": "Empty", "chapters": []}`)
	writeManifest(t, dir, "no-duration", `{
		"chapters": [{"audioPath": "/audio/ch01.wav", "durationSeconds": 0}]
	}`)

	resolver := books.NewManifestResolver(dir)
	if _, err := resolver.Resolve(context.Background(), "empty"); err == nil {
		t.Fatal("expected error for chapterless book")
	}
	if _, err := resolver.Resolve(context.Background(), "no-duration"); err == nil {
		t.Fatal("expected error for missing duration")
	}
}

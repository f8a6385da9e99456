package books

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnknownSubject indicates no manifest exists for the subject.
var ErrUnknownSubject = errors.New("unknown subject")

// Chapter is one ordered audio track within a book.
type Chapter struct {
	Title           string  `json:"title"`
	AudioPath       string  `json:"audioPath"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// Book describes everything the pipeline needs to process one subject.
type Book struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Chapters     []Chapter `json:"chapters"`
	DocumentPath string    `json:"documentPath,omitempty"`
}

// TotalDuration returns the summed duration of all chapters in seconds.
func (b *Book) TotalDuration() float64 {
	var total float64
	for _, chapter := range b.Chapters {
		total += chapter.DurationSeconds
	}
	return total
}

// HasDocument reports whether a companion document is attached.
func (b *Book) HasDocument() bool {
	return strings.TrimSpace(b.DocumentPath) != ""
}

// Resolver maps a subject identifier to its book description.
type Resolver interface {
	Resolve(ctx context.Context, subjectID string) (*Book, error)
}

// ManifestResolver reads one JSON manifest per subject from a directory.
type ManifestResolver struct {
	dir string
}

// NewManifestResolver constructs a resolver over the given library directory.
func NewManifestResolver(dir string) *ManifestResolver {
	return &ManifestResolver{dir: dir}
}

// Resolve loads and validates the manifest for subjectID.
func (r *ManifestResolver) Resolve(_ context.Context, subjectID string) (*Book, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, errors.New("subject id is required")
	}
	// Subject ids become file names; refuse anything that escapes the dir.
	if strings.ContainsAny(subjectID, `/\`) || subjectID == ".." {
		return nil, fmt.Errorf("invalid subject id %q", subjectID)
	}

	path := filepath.Join(r.dir, subjectID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSubject, subjectID)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var book Book
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if book.ID == "" {
		book.ID = subjectID
	}
	if err := validate(&book); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &book, nil
}

func validate(book *Book) error {
	if len(book.Chapters) == 0 {
		return errors.New("book has no chapters")
	}
	for i, chapter := range book.Chapters {
		if strings.TrimSpace(chapter.AudioPath) == "" {
			return fmt.Errorf("chapter %d is missing an audio path", i)
		}
		if chapter.DurationSeconds <= 0 {
			return fmt.Errorf("chapter %d has no known duration", i)
		}
	}
	return nil
}

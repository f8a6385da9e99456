package asr_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lectern/internal/asr"
	"lectern/internal/logging"
)

func TestModelsEnsureDownloadsOnce(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/ggml-base.en.bin" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("model-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	models := asr.NewModels(server.URL, dir, time.Minute, logging.NewNop())

	path, err := models.Ensure(t.Context(), "ggml-base.en.bin")
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read downloaded model: %v", err)
	}
	if string(data) != "model-bytes" {
		t.Fatalf("unexpected model contents %q", data)
	}

	if _, err := models.Ensure(t.Context(), "ggml-base.en.bin"); err != nil {
		t.Fatalf("second Ensure failed: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected one download, server saw %d requests", hits)
	}
}

func TestModelsEnsureFollowsRedirect(t *testing.T) {
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("redirected-model"))
	}))
	defer final.Close()
	front := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL+r.URL.Path, http.StatusFound)
	}))
	defer front.Close()

	models := asr.NewModels(front.URL, t.TempDir(), time.Minute, logging.NewNop())
	path, err := models.Ensure(t.Context(), "ggml-tiny.bin")
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "redirected-model" {
		t.Fatalf("unexpected model contents %q", data)
	}
}

func TestModelsEnsureErrorLeavesNoFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	models := asr.NewModels(server.URL, dir, time.Minute, logging.NewNop())
	if _, err := models.Ensure(t.Context(), "ggml-absent.bin"); err == nil {
		t.Fatal("expected error for missing model")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read models dir: %v", err)
	}
	for _, entry := range entries {
		t.Fatalf("unexpected leftover file %s", filepath.Join(dir, entry.Name()))
	}
}

func TestModelsEnsureRejectsPathyNames(t *testing.T) {
	models := asr.NewModels("http://invalid.example", t.TempDir(), time.Minute, logging.NewNop())
	for _, name := range []string{"", "../evil.bin", `sub\model.bin`} {
		if _, err := models.Ensure(t.Context(), name); err == nil {
			t.Fatalf("expected error for name %q", name)
		}
	}
}

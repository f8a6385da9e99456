package asr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"lectern/internal/logging"
)

// Models manages the local cache of ggml model artifacts.
type Models struct {
	registryURL string
	dir         string
	client      *http.Client
	logger      *slog.Logger
}

// NewModels constructs a model manager downloading from registryURL into dir.
func NewModels(registryURL, dir string, timeout time.Duration, logger *slog.Logger) *Models {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Models{
		registryURL: strings.TrimRight(registryURL, "/"),
		dir:         dir,
		client:      &http.Client{Timeout: timeout},
		logger:      logging.NewComponentLogger(logger, "models"),
	}
}

// Path returns the local path a model artifact would occupy.
func (m *Models) Path(name string) string {
	return filepath.Join(m.dir, name)
}

// Ensure returns the local path to a model artifact, downloading it when
// absent. Downloads go to a temp file and are renamed into place on success,
// so a crash mid-download can never produce a file mistaken for complete.
func (m *Models) Ensure(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("model name is required")
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid model name %q", name)
	}

	path := m.Path(name)
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return path, nil
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("create models directory: %w", err)
	}

	url := m.registryURL + "/" + name
	m.logger.Info("downloading model",
		logging.String(logging.FieldModel, name),
		logging.String("url", url),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build model request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download model %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download model %s: unexpected status %d", name, resp.StatusCode)
	}

	tempPath := path + ".tmp"
	temp, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create model temp file: %w", err)
	}

	written, copyErr := io.Copy(temp, resp.Body)
	closeErr := temp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tempPath)
		if copyErr != nil {
			return "", fmt.Errorf("write model %s: %w", name, copyErr)
		}
		return "", fmt.Errorf("close model temp file: %w", closeErr)
	}
	if written == 0 {
		os.Remove(tempPath)
		return "", fmt.Errorf("download model %s: empty response body", name)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("replace model file: %w", err)
	}

	m.logger.Info("model downloaded",
		logging.String(logging.FieldModel, name),
		logging.Int64("bytes", written),
	)
	return path, nil
}

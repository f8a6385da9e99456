// Package daemonrun wires the daemon process together: logging, the queue
// store, the pipeline engines, the workflow manager, and the control API.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"lectern/internal/aligning"
	"lectern/internal/alignment"
	"lectern/internal/api"
	"lectern/internal/asr"
	"lectern/internal/books"
	"lectern/internal/config"
	"lectern/internal/extracting"
	"lectern/internal/logging"
	"lectern/internal/queue"
	"lectern/internal/textextract"
	"lectern/internal/transcribing"
	"lectern/internal/transcripts"
	"lectern/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the lectern daemon and blocks until the context is cancelled or
// a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "lectern.log")
	logger, err := logging.New(logging.Options{
		Level:            levelOrConfig(opts.LogLevel, cfg),
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "lecternd.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another lectern daemon instance is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	pidPath := filepath.Join(cfg.Paths.LogDir, "lectern.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	transcriptStore, err := transcripts.Open(cfg)
	if err != nil {
		logger.Error("open transcript store", logging.Error(err))
		return err
	}
	defer transcriptStore.Close()

	// Jobs interrupted by a previous crash restart from the first stage; the
	// chapter transcript cache makes the rerun cheap.
	resumed, err := store.ResumeInterrupted(signalCtx)
	if err != nil {
		logger.Error("resume interrupted jobs", logging.Error(err))
		return err
	}
	if resumed > 0 {
		logger.Info("resumed interrupted jobs",
			logging.Int64("count", resumed),
			logging.String(logging.FieldEventType, "jobs_resumed"),
		)
	}

	selector := asr.NewSelector(cfg.Engine.Backend, cfg.Engine.Variant)
	models := asr.NewModels(cfg.Engine.RegistryURL, cfg.ModelsDir(),
		time.Duration(cfg.Engine.DownloadTimeout)*time.Second, logger)
	provider := asr.NewProvider(models, selector, cfg.Engine.Language, logger)
	defer provider.Close()

	backend := selector.Detect()
	logger.Info("recognition backend selected",
		logging.String(logging.FieldBackend, string(backend.Kind)),
		logging.Bool("gpu", backend.GPU),
		logging.String("reason", backend.Reason),
	)

	resolver := books.NewManifestResolver(cfg.Paths.LibraryDir)
	recognizer := asr.NewRecognizer(provider, transcriptStore, cfg.Engine.Model, cfg.Engine.SyntheticSentenceSeconds, logger)
	extractor := textextract.NewExtractor(cfg.Extraction.MinTextChars, logger)
	aligner := alignment.NewAligner(alignment.Thresholds{
		Match:        cfg.Alignment.MatchThreshold,
		Interpolated: cfg.Alignment.InterpolatedConfidence,
		Synthetic:    cfg.Alignment.SyntheticConfidence,
	}, logger)

	manager := workflow.NewManager(cfg, store, logger)
	manager.ConfigureStages(
		extracting.New(cfg, resolver, extractor, logger),
		transcribing.New(cfg, resolver, recognizer, store, logger),
		aligning.New(cfg, resolver, extractor, recognizer, aligner, transcriptStore, logger),
	)
	if err := manager.Start(signalCtx); err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	defer manager.Stop()

	if server := api.NewServer(cfg, store, manager, transcriptStore, logger); server != nil {
		if err := server.Start(signalCtx); err != nil {
			logger.Warn("api server unavailable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.api_bind in the configuration"),
			)
		} else {
			defer server.Stop()
		}
	}

	logger.Info("lectern daemon started",
		logging.String("lock", lockPath),
		logging.String("queue_db", store.Path()),
	)

	<-signalCtx.Done()
	logger.Info("lectern daemon shutting down")
	return nil
}

func levelOrConfig(level string, cfg *config.Config) string {
	if level != "" {
		return level
	}
	return cfg.Logging.Level
}

func writePIDFile(path string) error {
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

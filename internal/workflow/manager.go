package workflow

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/queue"
	"lectern/internal/stage"
)

// pipelineStage pairs a stage handler with the queue status that marks a job
// as being processed by it.
type pipelineStage struct {
	name       string
	processing queue.Status
	handler    stage.Handler
}

// Manager coordinates queue processing with a single background worker.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	pollInterval time.Duration
	retryDelay   time.Duration
	stages       []pipelineStage

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error

	currentJobID    int64
	cancelRequested bool
}

// NewManager constructs a workflow manager. Stages run in the order they are
// registered with ConfigureStages.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryDelay:   time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
	}
}

// ConfigureStages registers the ordered pipeline. Must be called before Start.
func (m *Manager) ConfigureStages(extracting, transcribing, aligning stage.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = []pipelineStage{
		{name: "extracting", processing: queue.StatusExtracting, handler: extracting},
		{name: "transcribing", processing: queue.StatusTranscribing, handler: transcribing},
		{name: "aligning", processing: queue.StatusAligning, handler: aligning},
	}
}

// Running reports whether the background worker is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// LastError returns the most recent processing error, if any.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setCurrentJob(id int64) {
	m.mu.Lock()
	m.currentJobID = id
	m.cancelRequested = false
	m.mu.Unlock()
}

func (m *Manager) clearCurrentJob() {
	m.mu.Lock()
	m.currentJobID = 0
	m.cancelRequested = false
	m.mu.Unlock()
}

// cancelPending reports whether the currently running job has a pending
// cancel request.
func (m *Manager) cancelPending(jobID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cancelRequested && m.currentJobID == jobID
}

// Health reports the readiness of each configured stage.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	m.mu.RLock()
	stages := m.stages
	m.mu.RUnlock()

	health := make([]stage.Health, 0, len(stages))
	for _, s := range stages {
		if s.handler == nil {
			health = append(health, stage.Unhealthy(s.name, "handler not configured"))
			continue
		}
		health = append(health, s.handler.HealthCheck(ctx))
	}
	return health
}

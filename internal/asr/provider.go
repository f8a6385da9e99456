package asr

import (
	"context"
	"fmt"
	"sync"

	"log/slog"

	"lectern/internal/logging"
)

// Provider owns the live engine handle. It binds the handle to the pair of
// model name and backend that produced it and rebuilds lazily whenever either
// changes, releasing the previous handle first. Safe for concurrent use.
type Provider struct {
	models   *Models
	selector *Selector
	factory  EngineFactory
	language string
	threads  int
	logger   *slog.Logger

	mu         sync.Mutex
	engine     Engine
	boundModel string
	boundKind  BackendKind
}

// ProviderOption customizes a Provider.
type ProviderOption func(*Provider)

// WithEngineFactory substitutes the engine constructor. Tests use this to
// avoid loading real models.
func WithEngineFactory(factory EngineFactory) ProviderOption {
	return func(p *Provider) { p.factory = factory }
}

// WithThreads pins the decoder thread count.
func WithThreads(n int) ProviderOption {
	return func(p *Provider) { p.threads = n }
}

// NewProvider constructs a Provider around the given model cache and backend
// selector.
func NewProvider(models *Models, selector *Selector, language string, logger *slog.Logger, opts ...ProviderOption) *Provider {
	p := &Provider{
		models:   models,
		selector: selector,
		factory:  NewWhisperEngine,
		language: language,
		logger:   logging.NewComponentLogger(logger, "asr"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Engine returns an engine initialized for modelName on the detected backend,
// downloading the model first when needed. When GPU initialization fails the
// provider forces the selector to CPU and retries once; the CPU choice then
// sticks for subsequent calls.
func (p *Provider) Engine(ctx context.Context, modelName string) (Engine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	backend := p.selector.Detect()
	if p.engine != nil && p.boundModel == modelName && p.boundKind == backend.Kind {
		return p.engine, nil
	}
	p.releaseLocked()

	modelPath, err := p.models.Ensure(ctx, modelName)
	if err != nil {
		return nil, err
	}

	engine, err := p.factory(InitConfig{
		ModelPath: modelPath,
		Language:  p.language,
		UseGPU:    backend.GPU,
		Threads:   p.threads,
	})
	if err != nil && backend.GPU {
		p.logger.Warn("gpu engine init failed, retrying on cpu",
			logging.String(logging.FieldBackend, string(backend.Kind)),
			logging.Error(err),
		)
		backend = p.selector.ForceCpu(fmt.Sprintf("gpu init failed: %v", err))
		engine, err = p.factory(InitConfig{
			ModelPath: modelPath,
			Language:  p.language,
			UseGPU:    false,
			Threads:   p.threads,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("initialize engine: %w", err)
	}

	p.engine = engine
	p.boundModel = modelName
	p.boundKind = backend.Kind
	p.logger.Info("engine ready",
		logging.String(logging.FieldModel, modelName),
		logging.String(logging.FieldBackend, string(backend.Kind)),
	)
	return engine, nil
}

// Close releases the current engine handle, if any.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
	return nil
}

func (p *Provider) releaseLocked() {
	if p.engine == nil {
		return
	}
	if err := p.engine.Close(); err != nil {
		p.logger.Warn("closing previous engine", logging.Error(err))
	}
	p.engine = nil
	p.boundModel = ""
	p.boundKind = ""
}

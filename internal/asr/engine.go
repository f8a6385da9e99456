package asr

import (
	"context"
	"errors"
)

// ErrEngineUnavailable reports that no speech recognition engine was compiled
// into this binary. Builds without the whisper tag return it from every
// transcription attempt.
var ErrEngineUnavailable = errors.New("speech recognition engine not available in this build")

// Fragment is one raw recognizer hypothesis with millisecond timing relative
// to the start of the audio file it came from.
type Fragment struct {
	Text    string
	StartMs int64
	EndMs   int64
}

// InitConfig carries everything needed to initialize a recognition engine.
type InitConfig struct {
	ModelPath string
	Language  string
	// UseGPU asks the engine to run on the detected GPU backend. Engines
	// whose acceleration is fixed at compile time may ignore it; see
	// NewWhisperEngine.
	UseGPU  bool
	Threads int
}

// Engine transcribes a single audio file. Implementations hold native
// resources and must be released with Close.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string) ([]Fragment, error)
	Close() error
}

// EngineFactory builds an engine for the given configuration. The production
// factory wraps whisper.cpp; tests inject their own.
type EngineFactory func(cfg InitConfig) (Engine, error)

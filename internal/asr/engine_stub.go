//go:build !whisper

package asr

// NewWhisperEngine is the stub used when the whisper build tag is absent. It
// keeps the rest of the pipeline compilable without the native whisper.cpp
// toolchain; callers fall back to synthetic transcripts.
func NewWhisperEngine(cfg InitConfig) (Engine, error) {
	return nil, ErrEngineUnavailable
}

//go:build whisper

package asr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// whisperEngine wraps a loaded whisper.cpp model. A fresh decoding context is
// created per Transcribe call; the model itself is reused until Close.
type whisperEngine struct {
	model    whisper.Model
	language string
	threads  int
}

// NewWhisperEngine loads the whisper.cpp model at cfg.ModelPath.
//
// cfg.UseGPU is not consulted: whisper.cpp picks its backend when the library
// is compiled (Metal, CUDA, or CPU-only) and the pinned Go binding exposes no
// runtime toggle. A binary built without GPU support simply runs on the CPU,
// so the provider's CPU retry only matters for engines that can fail GPU
// initialization at runtime.
func NewWhisperEngine(cfg InitConfig) (Engine, error) {
	model, err := whisper.New(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return &whisperEngine{
		model:    model,
		language: strings.TrimSpace(cfg.Language),
		threads:  threads,
	}, nil
}

func (e *whisperEngine) Transcribe(ctx context.Context, audioPath string) ([]Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	samples, err := readWAVMono(audioPath)
	if err != nil {
		return nil, err
	}

	params := whisper.NewParams(whisper.SAMPLING_GREEDY)
	params.SetNThreads(e.threads)
	params.SetAudioCtx(0)

	wctx, err := e.model.NewContext(params)
	if err != nil {
		return nil, fmt.Errorf("create whisper context: %w", err)
	}
	if e.language != "" && e.language != "auto" {
		if err := wctx.SetLanguage(e.language); err != nil {
			return nil, fmt.Errorf("set language %q: %w", e.language, err)
		}
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper process: %w", err)
	}

	var fragments []Fragment
	for {
		seg, err := wctx.NextSegment()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read segment: %w", err)
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		fragments = append(fragments, Fragment{
			Text:    text,
			StartMs: seg.Start.Milliseconds(),
			EndMs:   seg.End.Milliseconds(),
		})
	}
	return fragments, nil
}

func (e *whisperEngine) Close() error {
	return e.model.Close()
}

// readWAVMono decodes a WAV file into float32 samples scaled to [-1, 1].
// Multi-channel audio is averaged down to mono.
func readWAVMono(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	var buf *audio.IntBuffer
	buf, err = decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, errors.New("wav file contains no samples")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float32(int64(1) << (bitDepth - 1))

	channels := buf.Format.NumChannels
	if channels <= 1 {
		samples := make([]float32, len(buf.Data))
		for i, s := range buf.Data {
			samples[i] = float32(s) / scale
		}
		return samples, nil
	}

	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(buf.Data[i*channels+c]) / scale
		}
		samples[i] = sum / float32(channels)
	}
	return samples, nil
}

package asr

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// BackendKind identifies a compute backend for the recognition engine.
type BackendKind string

const (
	BackendMetal  BackendKind = "metal"
	BackendCuda   BackendKind = "cuda"
	BackendVulkan BackendKind = "vulkan"
	BackendCpu    BackendKind = "cpu"
)

// Backend describes the selected compute backend. It is derived state,
// memoized per process; only the user's preference is persisted (in config).
type Backend struct {
	Kind    BackendKind
	GPU     bool
	Variant string
	Reason  string
}

// Probe reports whether one backend is usable on this machine.
type Probe interface {
	Kind() BackendKind
	Available() bool
}

// Selector memoizes the backend choice for the process.
type Selector struct {
	preference string
	variant    string
	goos       string
	goarch     string
	probes     []Probe

	mu       sync.Mutex
	detected *Backend
}

// SelectorOption configures optional Selector behavior.
type SelectorOption func(*Selector)

// WithPlatform overrides the platform the selector reasons about (tests).
func WithPlatform(goos, goarch string) SelectorOption {
	return func(s *Selector) {
		s.goos = goos
		s.goarch = goarch
	}
}

// WithProbes replaces the capability probes (tests).
func WithProbes(probes ...Probe) SelectorOption {
	return func(s *Selector) {
		s.probes = probes
	}
}

// NewSelector constructs a selector for the given user preference, one of
// auto, metal, cuda, vulkan, or cpu.
func NewSelector(preference, variant string, opts ...SelectorOption) *Selector {
	s := &Selector{
		preference: strings.ToLower(strings.TrimSpace(preference)),
		variant:    strings.TrimSpace(variant),
		goos:       runtime.GOOS,
		goarch:     runtime.GOARCH,
		probes:     defaultProbes(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Detect returns the memoized backend choice, computing it on first call.
func (s *Selector) Detect() Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detected != nil {
		return *s.detected
	}
	backend := s.detect()
	backend.Variant = s.variant
	s.detected = &backend
	return backend
}

// Reset invalidates the memoized choice so the next Detect re-probes.
// Invoked when backend or model settings change.
func (s *Selector) Reset() {
	s.mu.Lock()
	s.detected = nil
	s.mu.Unlock()
}

// ForceCpu pins the selection to CPU with the given reason. Used after a GPU
// initialization failure; sticky until Reset.
func (s *Selector) ForceCpu(reason string) Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	backend := Backend{Kind: BackendCpu, GPU: false, Variant: s.variant, Reason: reason}
	s.detected = &backend
	return backend
}

func (s *Selector) detect() Backend {
	// A manual preference bypasses probing entirely.
	switch s.preference {
	case "metal":
		return Backend{Kind: BackendMetal, GPU: true, Reason: "user preference"}
	case "cuda":
		return Backend{Kind: BackendCuda, GPU: true, Reason: "user preference"}
	case "vulkan":
		return Backend{Kind: BackendVulkan, GPU: true, Reason: "user preference"}
	case "cpu":
		return Backend{Kind: BackendCpu, GPU: false, Reason: "user preference"}
	}

	if s.goos == "darwin" {
		if s.goarch == "arm64" {
			return Backend{Kind: BackendMetal, GPU: true, Reason: "darwin/arm64 default"}
		}
		// Intel Macs have no supported GPU path.
		return Backend{Kind: BackendCpu, GPU: false, Reason: "darwin/amd64 has no GPU path"}
	}

	for _, probe := range s.probes {
		if probe.Kind() == BackendMetal {
			continue
		}
		if probe.Available() {
			kind := probe.Kind()
			return Backend{
				Kind:   kind,
				GPU:    kind != BackendCpu,
				Reason: fmt.Sprintf("%s probe succeeded", kind),
			}
		}
	}
	return Backend{Kind: BackendCpu, GPU: false, Reason: "no GPU backend available"}
}

func defaultProbes() []Probe {
	return []Probe{cudaProbe{}, vulkanProbe{}, cpuProbe{}}
}

// cudaProbe checks for an NVIDIA driver installation.
type cudaProbe struct{}

func (cudaProbe) Kind() BackendKind { return BackendCuda }

func (cudaProbe) Available() bool {
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return true
	}
	for _, path := range []string{
		"/usr/lib/x86_64-linux-gnu/libcuda.so.1",
		"/usr/lib64/libcuda.so.1",
		"/usr/lib/wsl/lib/libcuda.so.1",
	} {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

// vulkanProbe checks for a Vulkan loader.
type vulkanProbe struct{}

func (vulkanProbe) Kind() BackendKind { return BackendVulkan }

func (vulkanProbe) Available() bool {
	if _, err := exec.LookPath("vulkaninfo"); err == nil {
		return true
	}
	for _, path := range []string{
		"/usr/lib/x86_64-linux-gnu/libvulkan.so.1",
		"/usr/lib64/libvulkan.so.1",
	} {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

// cpuProbe always succeeds; it terminates the probe order.
type cpuProbe struct{}

func (cpuProbe) Kind() BackendKind { return BackendCpu }

func (cpuProbe) Available() bool { return true }

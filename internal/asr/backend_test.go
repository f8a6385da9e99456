package asr_test

import (
	"testing"

	"lectern/internal/asr"
)

type fakeProbe struct {
	kind      asr.BackendKind
	available bool
}

func (p fakeProbe) Kind() asr.BackendKind { return p.kind }
func (p fakeProbe) Available() bool       { return p.available }

func TestDetectAutoDarwinArm64SelectsMetal(t *testing.T) {
	selector := asr.NewSelector("auto", "", asr.WithPlatform("darwin", "arm64"))
	backend := selector.Detect()
	if backend.Kind != asr.BackendMetal {
		t.Fatalf("expected metal, got %s", backend.Kind)
	}
	if !backend.GPU {
		t.Fatal("expected gpu=true")
	}
}

func TestDetectAutoDarwinAmd64SelectsCpu(t *testing.T) {
	selector := asr.NewSelector("auto", "", asr.WithPlatform("darwin", "amd64"))
	if backend := selector.Detect(); backend.Kind != asr.BackendCpu || backend.GPU {
		t.Fatalf("expected cpu without gpu, got %+v", backend)
	}
}

func TestDetectAutoLinuxProbeOrder(t *testing.T) {
	cases := []struct {
		name   string
		cuda   bool
		vulkan bool
		want   asr.BackendKind
	}{
		{"cuda wins", true, true, asr.BackendCuda},
		{"vulkan fallback", false, true, asr.BackendVulkan},
		{"cpu last resort", false, false, asr.BackendCpu},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			selector := asr.NewSelector("auto", "",
				asr.WithPlatform("linux", "amd64"),
				asr.WithProbes(
					fakeProbe{asr.BackendCuda, tc.cuda},
					fakeProbe{asr.BackendVulkan, tc.vulkan},
					fakeProbe{asr.BackendCpu, true},
				),
			)
			backend := selector.Detect()
			if backend.Kind != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, backend.Kind)
			}
			if backend.GPU != (tc.want != asr.BackendCpu) {
				t.Fatalf("gpu flag inconsistent: %+v", backend)
			}
		})
	}
}

func TestManualPreferenceBypassesProbes(t *testing.T) {
	// A vulkan preference wins even when no probe would report it available.
	selector := asr.NewSelector("vulkan", "",
		asr.WithPlatform("linux", "amd64"),
		asr.WithProbes(fakeProbe{asr.BackendVulkan, false}, fakeProbe{asr.BackendCpu, true}),
	)
	if backend := selector.Detect(); backend.Kind != asr.BackendVulkan {
		t.Fatalf("expected vulkan, got %s", backend.Kind)
	}
}

func TestDetectIsMemoizedUntilReset(t *testing.T) {
	probe := &countingProbe{kind: asr.BackendCuda, available: true}
	selector := asr.NewSelector("auto", "",
		asr.WithPlatform("linux", "amd64"),
		asr.WithProbes(probe, fakeProbe{asr.BackendCpu, true}),
	)

	selector.Detect()
	selector.Detect()
	if probe.calls != 1 {
		t.Fatalf("expected single probe call, got %d", probe.calls)
	}

	selector.Reset()
	selector.Detect()
	if probe.calls != 2 {
		t.Fatalf("expected re-probe after reset, got %d", probe.calls)
	}
}

func TestForceCpuIsStickyUntilReset(t *testing.T) {
	selector := asr.NewSelector("auto", "q5", asr.WithPlatform("darwin", "arm64"))
	selector.Detect()

	forced := selector.ForceCpu("metal initialization failed")
	if forced.Kind != asr.BackendCpu || forced.GPU {
		t.Fatalf("unexpected forced backend: %+v", forced)
	}
	if again := selector.Detect(); again.Kind != asr.BackendCpu {
		t.Fatalf("forced cpu should stick, got %s", again.Kind)
	}

	selector.Reset()
	if fresh := selector.Detect(); fresh.Kind != asr.BackendMetal {
		t.Fatalf("reset should re-detect metal, got %s", fresh.Kind)
	}
}

func TestVariantCarriedOnDescriptor(t *testing.T) {
	selector := asr.NewSelector("cpu", "q5_1")
	if backend := selector.Detect(); backend.Variant != "q5_1" {
		t.Fatalf("expected variant carried, got %q", backend.Variant)
	}
}

type countingProbe struct {
	kind      asr.BackendKind
	available bool
	calls     int
}

func (p *countingProbe) Kind() asr.BackendKind { return p.kind }

func (p *countingProbe) Available() bool {
	p.calls++
	return p.available
}

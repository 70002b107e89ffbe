package resample

import (
	"math"
	"testing"
)

func TestLinearOutputLength(t *testing.T) {
	rates := []int{8000, 16000, 22050, 24000, 44100, 48000}
	lengths := []int{1, 7, 1024, 3072, 4410}

	for _, from := range rates {
		for _, n := range lengths {
			in := make([]float32, n)
			got := len(Linear(in, from, 16000))
			want := int(math.Ceil(float64(n) * 16000 / float64(from)))
			if got < want-1 || got > want+1 {
				t.Fatalf("from %d, n %d: expected %d±1 samples, got %d", from, n, want, got)
			}
		}
	}
}

func TestLinearMatchingRatesCopiesInput(t *testing.T) {
	in := []float32{0.1, -0.2, 0.3}
	out := Linear(in, 16000, 16000)
	if len(out) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d changed: %v -> %v", i, in[i], out[i])
		}
	}

	out[0] = 1
	if in[0] == 1 {
		t.Fatalf("expected output to not alias input")
	}
}

func TestLinearInterpolatesBetweenSamples(t *testing.T) {
	out := Linear([]float32{0, 1}, 1, 2)
	want := []float32{0, 0.5, 1, 1}
	if len(out) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(out))
	}
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Fatalf("sample %d: expected %v, got %v", i, want[i], out[i])
		}
	}
}

func TestLinearDownsamplesByPicking(t *testing.T) {
	in := []float32{0, 0.1, 0.2, 0.3, 0.4, 0.5}
	out := Linear(in, 48000, 16000)
	want := []float32{0, 0.3}
	if len(out) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(out))
	}
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Fatalf("sample %d: expected %v, got %v", i, want[i], out[i])
		}
	}
}

func TestStreamCarriesPhaseAcrossBlocks(t *testing.T) {
	const from, to, block = 44100, 16000, 1024
	step := float64(from) / float64(to)

	in := make([]float32, 20000)
	for i := range in {
		in[i] = float32(i)
	}

	stream := NewStream(from, to)
	read := 0
	var out []float32
	for {
		need := stream.Need(block)
		if read+need > len(in) {
			break
		}
		samples, consumed := stream.Next(in[read:read+need], block)
		if consumed > need {
			t.Fatalf("consumed %d samples but only needed %d", consumed, need)
		}
		read += consumed
		out = append(out, samples...)
	}

	if len(out) < 5*block {
		t.Fatalf("expected at least 5 blocks, got %d samples", len(out))
	}
	for j, got := range out {
		want := float64(j) * step
		if math.Abs(float64(got)-want) > 0.01 {
			t.Fatalf("sample %d: expected input position %v, got %v", j, want, got)
		}
	}
	if want := int(float64(len(out)) * step); read != want {
		t.Fatalf("expected %d input samples consumed, got %d", want, read)
	}
}

func TestStreamDownsamplesByWholeSteps(t *testing.T) {
	stream := NewStream(48000, 16000)
	if got := stream.Need(1024); got != 3072 {
		t.Fatalf("expected 3072 input samples, got %d", got)
	}

	in := make([]float32, 3072)
	for i := range in {
		in[i] = float32(i)
	}
	out, consumed := stream.Next(in, 1024)
	if consumed != 3072 {
		t.Fatalf("expected 3072 samples consumed, got %d", consumed)
	}
	if out[1] != 3 || out[1023] != 3069 {
		t.Fatalf("expected every third sample, got %v and %v", out[1], out[1023])
	}
}

func TestHighQualityPassthroughWhenRatesMatch(t *testing.T) {
	hq, err := NewHighQuality(24000, 24000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := []int16{1, 2, 3}
	out, err := hq.Process(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(in) || out[2] != 3 {
		t.Fatalf("expected passthrough, got %v", out)
	}
}

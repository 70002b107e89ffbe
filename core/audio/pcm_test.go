package audio

import (
	"bytes"
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestChunkBase64RoundTripRestoresBytes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, size := range []int{0, 2, 64, 2048, 4096} {
		original := make([]byte, size)
		rng.Read(original)

		decoded, err := ChunkFromBase64(Chunk(original).Base64())
		if err != nil {
			t.Fatalf("size %d: unexpected decode error: %v", size, err)
		}
		if !bytes.Equal(decoded, original) {
			t.Fatalf("size %d: round trip changed bytes", size)
		}
	}
}

func TestChunkFromBase64RejectsMalformedPayloads(t *testing.T) {
	if _, err := ChunkFromBase64("not base64!"); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
	if _, err := ChunkFromBase64(Chunk{1, 2, 3}.Base64()); err == nil {
		t.Fatalf("expected error for odd length payload")
	}
}

func TestFloatToInt16Clamps(t *testing.T) {
	testCases := []struct {
		in   float32
		want int16
	}{
		{in: 0, want: 0},
		{in: 1, want: math.MaxInt16},
		{in: 1.7, want: math.MaxInt16},
		{in: -1, want: -math.MaxInt16},
		{in: -3, want: -math.MaxInt16},
		{in: 0.5, want: 16384},
		{in: float32(math.NaN()), want: 0},
	}

	for _, testCase := range testCases {
		if got := FloatToInt16(testCase.in); got != testCase.want {
			t.Fatalf("FloatToInt16(%v) = %d, want %d", testCase.in, got, testCase.want)
		}
	}
}

func TestEncodeDecodeInt16(t *testing.T) {
	samples := []int16{0, 1, -1, math.MaxInt16, math.MinInt16, 1234}
	chunk := EncodeInt16(samples)
	if chunk.Samples() != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), chunk.Samples())
	}

	decoded := DecodeInt16(chunk)
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, samples[i], decoded[i])
		}
	}
}

func TestDBFS(t *testing.T) {
	if got := DBFS(make([]float32, 16)); !math.IsInf(got, -1) {
		t.Fatalf("expected -Inf for silence, got %v", got)
	}

	full := []float32{1, -1, 1, -1}
	if got := DBFS(full); math.Abs(got) > 1e-9 {
		t.Fatalf("expected 0 dBFS for full scale square, got %v", got)
	}
}

func TestEncodingInfoDuration(t *testing.T) {
	info := GetDefaultEncodingInfo()
	if got, want := info.Duration(info.ChunkBytes(ChunkSamples)), 64*time.Millisecond; got != want {
		t.Fatalf("expected chunk duration %v, got %v", want, got)
	}
}

func TestOutputEncodingInfo(t *testing.T) {
	info := GetOutputEncodingInfo()
	if info.IsZero() {
		t.Fatalf("expected output encoding to be set")
	}
	if got, want := info.Duration(4800), 100*time.Millisecond; got != want {
		t.Fatalf("expected %v of output audio, got %v", want, got)
	}
}

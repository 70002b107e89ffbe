package vad

import (
	"testing"
	"time"
)

func loud(n int) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 0.5
		} else {
			samples[i] = -0.5
		}
	}
	return samples
}

func TestSilenceGateSuppressesAfterMinimumSilence(t *testing.T) {
	gate := NewSilenceGate(WithThresholdDB(-40), WithMinSilence(200*time.Millisecond))
	chunk := 64 * time.Millisecond
	quiet := make([]float32, 1024)

	// 64, 128, 192ms of silence still pass.
	for i := range 3 {
		if !gate.Allow(quiet, chunk) {
			t.Fatalf("chunk %d: expected silence below minimum duration to pass", i)
		}
	}
	if gate.Allow(quiet, chunk) {
		t.Fatalf("expected gate to close after 256ms of silence")
	}
	if !gate.Silent() {
		t.Fatalf("expected gate to report silent")
	}
}

func TestSilenceGateResetsWhenEnergyRises(t *testing.T) {
	gate := NewSilenceGate(WithThresholdDB(-40), WithMinSilence(100*time.Millisecond))
	quiet := make([]float32, 1024)
	chunk := 64 * time.Millisecond

	gate.Allow(quiet, chunk)
	gate.Allow(quiet, chunk)
	if gate.Allow(quiet, chunk) {
		t.Fatalf("expected gate to be closed")
	}

	if !gate.Allow(loud(1024), chunk) {
		t.Fatalf("expected loud chunk to pass")
	}
	if !gate.Allow(quiet, chunk) {
		t.Fatalf("expected silence timer to restart after loud chunk")
	}
}

// Package vad holds energy based voice activity helpers for the capture path.
package vad

import (
	"time"

	"github.com/danieloquelis/questvoice/core/audio"
)

const (
	DefaultThresholdDB = -50.0
	DefaultMinSilence  = 1500 * time.Millisecond
)

// SilenceGate suppresses capture chunks once the signal has stayed below a
// threshold for a minimum duration. It reopens on the first chunk above the
// threshold.
//
// SilenceGate is not safe for concurrent use.
type SilenceGate struct {
	thresholdDB float64
	minSilence  time.Duration

	silentFor time.Duration
}

type GateOption func(*SilenceGate)

func WithThresholdDB(threshold float64) GateOption {
	return func(g *SilenceGate) { g.thresholdDB = threshold }
}

func WithMinSilence(d time.Duration) GateOption {
	return func(g *SilenceGate) { g.minSilence = d }
}

func NewSilenceGate(opts ...GateOption) *SilenceGate {
	g := &SilenceGate{
		thresholdDB: DefaultThresholdDB,
		minSilence:  DefaultMinSilence,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allow reports whether a chunk of samples lasting d should be emitted.
func (g *SilenceGate) Allow(samples []float32, d time.Duration) bool {
	if audio.DBFS(samples) > g.thresholdDB {
		g.silentFor = 0
		return true
	}

	g.silentFor += d
	return g.silentFor < g.minSilence
}

// Silent reports whether the gate is currently suppressing audio.
func (g *SilenceGate) Silent() bool { return g.silentFor >= g.minSilence }

func (g *SilenceGate) Reset() { g.silentFor = 0 }

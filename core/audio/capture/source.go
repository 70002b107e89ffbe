// Package capture turns a microphone device into an ordered stream of
// canonical 16kHz PCM16 chunks.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danieloquelis/questvoice/core/audio"
	"github.com/danieloquelis/questvoice/core/audio/resample"
	"github.com/danieloquelis/questvoice/core/audio/vad"
	"go.opentelemetry.io/otel/codes"
)

var ErrNoDevice = errors.New("no capture device available")

// Device is a microphone producing mono float samples in [-1, 1].
//
// Open negotiates the device and reports the sample rate it will deliver.
// Start begins delivering samples to write from the device's own goroutine or
// callback until Close.
type Device interface {
	Open() (sampleRate int, err error)
	Start(write func(samples []float32)) error
	Close() error
}

type SourceOption func(*Source)

// WithSilenceGate suppresses chunks once the input stays silent.
func WithSilenceGate(gate *vad.SilenceGate) SourceOption {
	return func(s *Source) { s.gate = gate }
}

// WithChunkSamples overrides the number of output samples per chunk.
func WithChunkSamples(samples int) SourceOption {
	return func(s *Source) {
		if samples > 0 {
			s.chunkSamples = samples
		}
	}
}

// WithTargetRate overrides the output sample rate.
func WithTargetRate(rate int) SourceOption {
	return func(s *Source) {
		if rate > 0 {
			s.target = audio.EncodingInfo{SampleRate: rate, Format: audio.EncodingPCM16}
		}
	}
}

// Source polls a Device's ring buffer and emits fixed size chunks at the
// target rate. Poll is meant to be called from a single tick loop.
type Source struct {
	device       Device
	target       audio.EncodingInfo
	chunkSamples int
	gate         *vad.SilenceGate

	mu         sync.Mutex
	running    bool
	ring       *Ring
	deviceRate int
	readPos    int
	stream     *resample.Stream

	muted atomic.Bool
}

func NewSource(device Device, opts ...SourceOption) *Source {
	s := &Source{
		device:       device,
		target:       audio.GetDefaultEncodingInfo(),
		chunkSamples: audio.ChunkSamples,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the device and begins filling the ring buffer. A missing or
// failing device leaves the source disabled and returns an error wrapping
// ErrNoDevice.
func (s *Source) Start(ctx context.Context) error {
	_, span := tracer.Start(ctx, "start capture")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	if s.device == nil {
		span.RecordError(ErrNoDevice)
		span.SetStatus(codes.Error, ErrNoDevice.Error())
		return ErrNoDevice
	}

	rate, err := s.device.Open()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrNoDevice, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if rate <= 0 {
		_ = s.device.Close()
		err := fmt.Errorf("%w: device reported sample rate %d", ErrNoDevice, rate)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	ring := NewRing(rate)
	if err := s.device.Start(ring.Write); err != nil {
		_ = s.device.Close()
		err = fmt.Errorf("%w: %w", ErrNoDevice, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.ring = ring
	s.deviceRate = rate
	s.readPos = ring.Position()
	s.stream = resample.NewStream(rate, s.target.SampleRate)
	if s.gate != nil {
		s.gate.Reset()
	}
	s.running = true

	logger.Info("capture started", "device_rate", rate, "target_rate", s.target.SampleRate)
	return nil
}

// Stop closes the device. It is safe to call repeatedly or before Start.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}

	s.running = false
	s.ring = nil
	if err := s.device.Close(); err != nil {
		return fmt.Errorf("failed to close capture device: %w", err)
	}
	logger.Info("capture stopped")
	return nil
}

func (s *Source) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SetMuted drops captured audio without stopping the device.
func (s *Source) SetMuted(muted bool) { s.muted.Store(muted) }
func (s *Source) IsMuted() bool       { return s.muted.Load() }

// Poll returns every complete chunk captured since the previous call, in
// capture order.
func (s *Source) Poll() []audio.Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}

	size := s.ring.Size()
	chunkDuration := time.Duration(s.chunkSamples) * time.Second / time.Duration(s.target.SampleRate)

	var chunks []audio.Chunk
	for {
		available := s.ring.Position() - s.readPos
		if available < 0 {
			available += size
		}
		need := s.stream.Need(s.chunkSamples)
		if available < need || need > size {
			return chunks
		}

		raw := make([]float32, need)
		s.ring.ReadAt(s.readPos, raw)
		samples, consumed := s.stream.Next(raw, s.chunkSamples)
		s.readPos = (s.readPos + consumed) % size

		if s.muted.Load() {
			continue
		}
		if s.gate != nil && !s.gate.Allow(samples, chunkDuration) {
			continue
		}
		chunks = append(chunks, audio.EncodeFloat32(samples))
	}
}

// Run polls the source every interval and hands chunks to emit until ctx is
// done.
func (s *Source) Run(ctx context.Context, interval time.Duration, emit func(audio.Chunk)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, chunk := range s.Poll() {
				emit(chunk)
			}
		}
	}
}

// Package otoplayer provides a playback sink backed by oto.
package otoplayer

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/danieloquelis/questvoice/core/audio"
)

// Sink plays each buffer on its own oto player. oto allows only one context
// per process, so a Sink should be created once and reused.
type Sink struct {
	otoCtx     *oto.Context
	sampleRate int

	mu     sync.Mutex
	player *oto.Player
}

func NewSink(sampleRate int) (*Sink, error) {
	otoCtx, readyChan, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	logger.Info("audio output initialized", "sample_rate", sampleRate)
	return &Sink{otoCtx: otoCtx, sampleRate: sampleRate}, nil
}

func (s *Sink) SampleRate() int { return s.sampleRate }

func (s *Sink) Play(samples []int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closePlayer()
	s.player = s.otoCtx.NewPlayer(bytes.NewReader(audio.EncodeInt16(samples)))
	s.player.Play()
	return nil
}

func (s *Sink) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player != nil && s.player.IsPlaying()
}

func (s *Sink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closePlayer()
	return nil
}

func (s *Sink) Close() error {
	if err := s.Stop(); err != nil {
		return err
	}
	if err := s.otoCtx.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend oto context: %w", err)
	}
	return nil
}

func (s *Sink) closePlayer() {
	if s.player == nil {
		return
	}
	s.player.Pause()
	if err := s.player.Close(); err != nil {
		logger.Warn("failed to close player", "error", err)
	}
	s.player = nil
}

package miniaudio

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// Player is a mono speaker sink. Each Play call replaces the current buffer;
// the device keeps running and emits silence between buffers.
type Player struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	sampleRate   int

	mu      sync.Mutex
	current []int16
}

func (p *Player) SampleRate() int { return p.sampleRate }

func (p *Player) init() error {
	if p.device != nil {
		return nil
	}

	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(p.sampleRate)
	config.Playback.Format = format
	config.Playback.Channels = uint32(channels)
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = uint32(p.sampleRate / 50) // ~20ms of audio
	config.Periods = 4

	device, err := malgo.InitDevice(p.audioContext.Context, config, malgo.DeviceCallbacks{
		Data: p.processAudio(bytesPerFrame),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	p.device = device
	return nil
}

func (p *Player) Play(samples []int16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.init(); err != nil {
		return err
	}

	p.current = samples
	return nil
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.current) > 0
}

// Stop silences the current buffer. The device stays open for the next Play.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	return nil
}

func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
	if p.device == nil {
		return nil
	}

	var err error
	if p.device.IsStarted() {
		if stopErr := p.device.Stop(); stopErr != nil {
			err = fmt.Errorf("failed to stop playback device: %w", stopErr)
		}
	}
	p.device.Uninit()
	p.device = nil
	return err
}

func (p *Player) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame
		if need > len(pOutput) {
			need = len(pOutput)
		}
		clear(pOutput[:need])

		p.mu.Lock()
		defer p.mu.Unlock()

		frames := need / 2
		if frames > len(p.current) {
			frames = len(p.current)
		}
		for i := 0; i < frames; i++ {
			binary.LittleEndian.PutUint16(pOutput[i*2:], uint16(p.current[i]))
		}
		p.current = p.current[frames:]
	}
}

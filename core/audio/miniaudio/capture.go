package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/danieloquelis/questvoice/core/audio"
)

// Capture is a mono microphone running at the device's native rate.
type Capture struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device

	write func(samples []float32)

	mu sync.Mutex
}

func (c *Capture) Open() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device != nil {
		return int(c.device.SampleRate()), nil
	}

	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = format
	config.Capture.Channels = uint32(channels)
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency
	config.PeriodSizeInFrames = 480
	config.Periods = 3

	device, err := malgo.InitDevice(c.audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}

			c.mu.Lock()
			write := c.write
			c.mu.Unlock()
			if write != nil {
				write(audio.DecodeFloat32(audio.Chunk(pInput[:n])))
			}
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to initialize capture device: %w", err)
	}

	c.device = device
	return int(device.SampleRate()), nil
}

func (c *Capture) Start(write func(samples []float32)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if c.device.IsStarted() {
		return nil
	}

	c.write = write
	if err := c.device.Start(); err != nil {
		c.write = nil
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return nil
	}

	var err error
	if c.device.IsStarted() {
		if stopErr := c.device.Stop(); stopErr != nil {
			err = fmt.Errorf("failed to stop capture device: %w", stopErr)
		}
	}
	c.device.Uninit()
	c.device = nil
	c.write = nil
	return err
}

// Package portaudio provides a capture device backed by PortAudio.
package portaudio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Capture reads the default input device at its native rate in blocking
// mode from a dedicated goroutine.
type Capture struct {
	bufferSize int

	mu      sync.Mutex
	stream  *portaudio.Stream
	in      []float32
	closeCh chan struct{}
	done    chan struct{}
}

func NewCapture(bufferSize int) *Capture {
	if bufferSize <= 0 {
		bufferSize = 512
	}
	return &Capture{bufferSize: bufferSize}
}

func (c *Capture) Open() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return 0, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		portaudio.Terminate()
		return 0, fmt.Errorf("failed to find default input device: %w", err)
	}

	sampleRate := int(device.DefaultSampleRate)
	c.in = make([]float32, c.bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), c.bufferSize, c.in)
	if err != nil {
		portaudio.Terminate()
		return 0, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	c.stream = stream
	return sampleRate, nil
}

func (c *Capture) Start(write func(samples []float32)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return fmt.Errorf("stream not opened")
	}
	if c.closeCh != nil {
		return nil
	}

	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	c.closeCh = make(chan struct{})
	c.done = make(chan struct{})
	go c.read(c.stream, c.in, write, c.closeCh, c.done)
	return nil
}

func (c *Capture) read(stream *portaudio.Stream, in []float32, write func([]float32), closeCh, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-closeCh:
			return
		default:
		}

		if err := stream.Read(); err != nil {
			// Input overflow is reported as an error but the samples are still
			// valid.
			logger.Debug("portaudio read", "error", err)
		}

		samples := make([]float32, len(in))
		copy(samples, in)
		write(samples)
	}
}

func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return nil
	}

	if c.closeCh != nil {
		close(c.closeCh)
		<-c.done
		c.closeCh = nil
	}

	var err error
	if stopErr := c.stream.Stop(); stopErr != nil {
		err = fmt.Errorf("failed to stop portaudio stream: %w", stopErr)
	}
	_ = c.stream.Close()
	c.stream = nil
	portaudio.Terminate()
	return err
}

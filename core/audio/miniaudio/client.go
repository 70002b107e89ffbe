// Package miniaudio provides capture and playback devices backed by miniaudio.
package miniaudio

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

// Client owns the miniaudio context shared by its capture and playback
// devices.
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) { logger.Debug("malgo", "message", message) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	return &Client{audioContext: audioCtx}, nil
}

// Capture returns a microphone device using the system default input.
func (c *Client) Capture() *Capture {
	return &Capture{audioContext: c.audioContext}
}

// Player returns a speaker sink running at sampleRate.
func (c *Client) Player(sampleRate int) *Player {
	return &Player{audioContext: c.audioContext, sampleRate: sampleRate}
}

func (c *Client) Close() {
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}

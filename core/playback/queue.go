// Package playback serializes synthesized agent audio onto an output sink.
package playback

import (
	"fmt"
	"sync/atomic"

	"github.com/danieloquelis/questvoice/core/audio"
	"github.com/danieloquelis/questvoice/core/audio/resample"
)

// DefaultStreamRate is the sample rate of PCM16 audio streamed by the agent.
const DefaultStreamRate = audio.OutputSampleRate

// Sink plays one buffer at a time. Play must not block until the buffer has
// finished; IsPlaying reports whether the last buffer is still sounding.
type Sink interface {
	SampleRate() int
	Play(samples []int16) error
	IsPlaying() bool
	Stop() error
}

// Item is a decoded buffer waiting for playback.
type Item struct {
	Samples []int16
}

type QueueOption func(*Queue)

// WithStreamRate sets the sample rate of enqueued chunks.
func WithStreamRate(rate int) QueueOption {
	return func(q *Queue) {
		if rate > 0 {
			q.streamRate = rate
		}
	}
}

// Queue plays enqueued chunks strictly in order, never overlapping two
// buffers. It is owned by a single goroutine; Enqueue, Tick and
// StopImmediately must not be called concurrently. Muting is the exception
// and may be toggled from anywhere.
type Queue struct {
	sink       Sink
	streamRate int
	resampler  *resample.HighQuality

	items   []Item
	playing bool

	muted atomic.Bool
}

func NewQueue(sink Sink, opts ...QueueOption) (*Queue, error) {
	q := &Queue{sink: sink, streamRate: DefaultStreamRate}
	for _, opt := range opts {
		opt(q)
	}

	if sink != nil && sink.SampleRate() > 0 && sink.SampleRate() != q.streamRate {
		resampler, err := resample.NewHighQuality(q.streamRate, sink.SampleRate())
		if err != nil {
			return nil, fmt.Errorf("failed to create playback resampler: %w", err)
		}
		q.resampler = resampler
	}

	return q, nil
}

// Enqueue decodes chunk and appends it to the queue.
func (q *Queue) Enqueue(chunk audio.Chunk) error {
	if q.sink == nil || len(chunk) == 0 {
		return nil
	}

	samples := audio.DecodeInt16(chunk)
	if q.resampler != nil {
		converted, err := q.resampler.Process(samples)
		if err != nil {
			return fmt.Errorf("failed to convert playback audio: %w", err)
		}
		samples = converted
	}
	if len(samples) == 0 {
		return nil
	}

	q.items = append(q.items, Item{Samples: samples})
	return nil
}

// Tick starts the next queued item once the sink has gone idle. It reports
// whether a new item was started.
func (q *Queue) Tick() (bool, error) {
	if q.sink == nil {
		return false, nil
	}

	if q.playing && q.sink.IsPlaying() {
		return false, nil
	}
	q.playing = false

	if len(q.items) == 0 {
		return false, nil
	}

	item := q.items[0]
	q.items[0] = Item{}
	q.items = q.items[1:]

	if q.muted.Load() {
		return false, nil
	}

	if err := q.sink.Play(item.Samples); err != nil {
		return false, fmt.Errorf("failed to start playback: %w", err)
	}
	q.playing = true
	return true, nil
}

// StopImmediately drops every queued item and halts the sink.
func (q *Queue) StopImmediately() error {
	q.items = nil
	q.playing = false
	if q.resampler != nil {
		if err := q.resampler.Reset(); err != nil {
			return err
		}
	}
	if q.sink == nil {
		return nil
	}
	if err := q.sink.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	return nil
}

func (q *Queue) Len() int { return len(q.items) }

// Busy reports whether audio is playing or waiting to play.
func (q *Queue) Busy() bool {
	if len(q.items) > 0 {
		return true
	}
	return q.playing && q.sink != nil && q.sink.IsPlaying()
}

// SetMuted discards items as they reach the front of the queue instead of
// playing them.
func (q *Queue) SetMuted(muted bool) { q.muted.Store(muted) }
func (q *Queue) IsMuted() bool       { return q.muted.Load() }

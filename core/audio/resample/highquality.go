package resample

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/danieloquelis/questvoice/core/audio"
)

// HighQuality is a stateful polyphase resampler for streamed PCM16 audio. It
// keeps filter history between calls, so chunks must be fed in order and the
// resampler recreated (see Reset) after a discontinuity.
//
// HighQuality is not safe for concurrent use.
type HighQuality struct {
	from, to  int
	resampler resampling.Resampler
}

func NewHighQuality(from, to int) (*HighQuality, error) {
	hq := &HighQuality{from: from, to: to}
	if err := hq.Reset(); err != nil {
		return nil, err
	}
	return hq, nil
}

// Reset drops any buffered filter state.
func (r *HighQuality) Reset() error {
	if r.from == r.to {
		r.resampler = nil
		return nil
	}

	resampler, err := resampling.New(&resampling.Config{
		InputRate:  float64(r.from),
		OutputRate: float64(r.to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return fmt.Errorf("failed to create resampler %d->%d: %w", r.from, r.to, err)
	}
	r.resampler = resampler
	return nil
}

// Process converts samples and returns the 16-bit output available so far.
func (r *HighQuality) Process(samples []int16) ([]int16, error) {
	if r.resampler == nil {
		out := make([]int16, len(samples))
		copy(out, samples)
		return out, nil
	}

	input := make([]float64, len(samples))
	for i, s := range samples {
		input[i] = float64(s) / 32768.0
	}

	output, err := r.resampler.Process(input)
	if err != nil {
		return nil, fmt.Errorf("failed to resample: %w", err)
	}

	out := make([]int16, len(output))
	for i, s := range output {
		out[i] = audio.FloatToInt16(float32(s))
	}
	return out, nil
}

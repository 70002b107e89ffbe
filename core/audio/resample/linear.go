// Package resample converts mono audio between sample rates.
package resample

import "math"

// OutputLen is the number of samples Linear produces for inputLen samples
// converted from rate from to rate to.
func OutputLen(inputLen, from, to int) int {
	if inputLen <= 0 || from <= 0 || to <= 0 {
		return 0
	}
	if from == to {
		return inputLen
	}
	return int(math.Ceil(float64(inputLen) * float64(to) / float64(from)))
}

// Linear resamples in from rate from to rate to using linear interpolation.
// When the rates match the input is copied unchanged.
func Linear(in []float32, from, to int) []float32 {
	n := OutputLen(len(in), from, to)
	out := make([]float32, n)
	if n == 0 {
		return out
	}
	if from == to {
		copy(out, in)
		return out
	}

	step := float64(from) / float64(to)
	last := len(in) - 1
	for i := range out {
		position := float64(i) * step
		index := int(position)
		if index >= last {
			out[i] = in[last]
			continue
		}

		frac := float32(position - float64(index))
		out[i] = in[index]*(1-frac) + in[index+1]*frac
	}
	return out
}

// Stream is a linear resampler for audio read in consecutive blocks. It
// carries the fractional read position from one block to the next so the
// outputs join without dropping or repeating input.
type Stream struct {
	from, to int
	step     float64
	phase    float64
}

func NewStream(from, to int) *Stream {
	return &Stream{from: from, to: to, step: float64(from) / float64(to)}
}

// Need is the number of input samples Next reads to produce n samples.
func (s *Stream) Need(n int) int {
	if n <= 0 {
		return 0
	}
	if s.from == s.to {
		return n
	}
	interpolated := int(s.phase+float64(n-1)*s.step) + 2
	return max(interpolated, int(s.phase+float64(n)*s.step))
}

// Next produces n samples from in, which must hold at least Need(n)
// samples, and reports how many input samples were consumed. The remaining
// input has to lead the next block.
func (s *Stream) Next(in []float32, n int) (out []float32, consumed int) {
	out = make([]float32, n)
	if s.from == s.to {
		copy(out, in[:n])
		return out, n
	}

	for i := range out {
		position := s.phase + float64(i)*s.step
		index := int(position)
		frac := float32(position - float64(index))
		out[i] = in[index]*(1-frac) + in[index+1]*frac
	}

	end := s.phase + float64(n)*s.step
	consumed = int(end)
	s.phase = end - float64(consumed)
	return out, consumed
}

func (s *Stream) Reset() { s.phase = 0 }

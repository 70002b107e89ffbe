package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Chunk is an ordered run of PCM16 little-endian mono samples. A chunk is
// never modified after it is produced.
type Chunk []byte

// Samples returns the number of 16-bit samples held by the chunk.
func (c Chunk) Samples() int { return len(c) / 2 }

// Base64 encodes the chunk for transport inside a JSON frame.
func (c Chunk) Base64() string { return base64.StdEncoding.EncodeToString(c) }

// ChunkFromBase64 decodes a base64 PCM16 payload received over the wire.
func ChunkFromBase64(encoded string) (Chunk, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 audio: %w", err)
	}
	if len(decoded)%2 != 0 {
		return nil, fmt.Errorf("odd pcm16 payload length %d", len(decoded))
	}
	return Chunk(decoded), nil
}

// FloatToInt16 converts a float sample to a 16-bit sample, clamping values
// outside [-1, 1].
func FloatToInt16(sample float32) int16 {
	switch {
	case sample >= 1:
		return math.MaxInt16
	case sample <= -1:
		return -math.MaxInt16
	case sample != sample: // NaN
		return 0
	}
	return int16(math.Round(float64(sample) * math.MaxInt16))
}

// Int16ToFloat converts a 16-bit sample to a float in [-1, 1].
func Int16ToFloat(sample int16) float32 {
	return float32(sample) / 32768
}

// EncodeFloat32 clamps samples and encodes them as a PCM16 chunk.
func EncodeFloat32(samples []float32) Chunk {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(FloatToInt16(s)))
	}
	return Chunk(out)
}

// EncodeInt16 encodes samples as a PCM16 chunk.
func EncodeInt16(samples []int16) Chunk {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return Chunk(out)
}

// DecodeInt16 decodes a PCM16 chunk. A trailing odd byte is ignored.
func DecodeInt16(chunk Chunk) []int16 {
	out := make([]int16, len(chunk)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(chunk[i*2:]))
	}
	return out
}

// DecodeFloat32 decodes a PCM16 chunk into float samples in [-1, 1].
func DecodeFloat32(chunk Chunk) []float32 {
	out := make([]float32, len(chunk)/2)
	for i := range out {
		out[i] = Int16ToFloat(int16(binary.LittleEndian.Uint16(chunk[i*2:])))
	}
	return out
}

// Int16ToFloat32 converts interleaved 16-bit samples to floats.
func Int16ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = Int16ToFloat(s)
	}
	return out
}

// RMS returns the root mean square of samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// DBFS returns the RMS level of samples in decibels relative to full scale.
// Silence maps to -Inf.
func DBFS(samples []float32) float64 {
	rms := RMS(samples)
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}

package audio

import "time"

const (
	// DefaultSampleRate is the rate of audio sent to the agent.
	DefaultSampleRate = 16000
	// OutputSampleRate is the rate of audio the agent streams back.
	OutputSampleRate = 24000

	// ChunkSamples is the number of samples in one outbound capture chunk
	// (64ms at the default sample rate).
	ChunkSamples = 1024
)

// EncodingPCM16 is signed 16-bit little-endian mono, the only format on the
// agent connection.
const EncodingPCM16 encodingFormat = "pcm16"

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: EncodingPCM16}
}

func GetOutputEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: OutputSampleRate, Format: EncodingPCM16}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format == ""
}

// Duration reports how much audio byteCount bytes hold in this encoding.
func (e EncodingInfo) Duration(byteCount int) time.Duration {
	size := e.Format.ByteSize()
	if e.SampleRate <= 0 || size <= 0 {
		return 0
	}
	return time.Duration(byteCount/size) * time.Second / time.Duration(e.SampleRate)
}

func (e EncodingInfo) ChunkBytes(samples int) int {
	return samples * e.Format.ByteSize()
}

type encodingFormat string

func (e encodingFormat) String() string { return string(e) }

func (e encodingFormat) ByteSize() int {
	if e == EncodingPCM16 {
		return 2
	}
	return -1
}

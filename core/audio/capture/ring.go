package capture

import "sync"

// Ring is a float32 circular buffer written by a capture device and read by
// the Source on each tick. The write position wraps at Size.
type Ring struct {
	mu       sync.Mutex
	samples  []float32
	position int
}

// NewRing allocates a ring holding at least one second of audio at
// sampleRate.
func NewRing(sampleRate int) *Ring {
	size := sampleRate
	if size < 1 {
		size = 1
	}
	return &Ring{samples: make([]float32, size)}
}

func (r *Ring) Size() int { return len(r.samples) }

// Position returns the next index the device will write to.
func (r *Ring) Position() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

// Write appends samples at the write position, overwriting the oldest data
// once the ring is full.
func (r *Ring) Write(samples []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := len(r.samples)
	if len(samples) > size {
		r.position = (r.position + len(samples) - size) % size
		samples = samples[len(samples)-size:]
	}

	n := copy(r.samples[r.position:], samples)
	if n < len(samples) {
		copy(r.samples, samples[n:])
	}
	r.position = (r.position + len(samples)) % size
}

// ReadAt fills dst with samples starting at start, continuing across the end
// of the ring when needed.
func (r *Ring) ReadAt(start int, dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := len(r.samples)
	start %= size
	n := copy(dst, r.samples[start:])
	if n < len(dst) {
		copy(dst[n:], r.samples[:len(dst)-n])
	}
}

// Reset zeroes the ring and rewinds the write position.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.samples)
	r.position = 0
}

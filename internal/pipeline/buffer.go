package pipeline

import "sync"

// ChannelSample is one timestamped reading of a three-component signal.
// T is seconds since the pipeline saw its first frame, which is what the
// plot X axis wants.
type ChannelSample struct {
	T float64 `json:"t"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ChannelBuffer is a fixed-capacity rolling history of samples with FIFO
// eviction: once full, each append drops the oldest entry. The acquisition
// loop is the sole writer; renderer goroutines read via Snapshot, which
// copies out under a read-side-friendly lock so a reader sees either the
// pre- or post-append state, never a torn sample.
type ChannelBuffer struct {
	mu   sync.RWMutex
	data []ChannelSample
	pos  int
	full bool
}

// NewChannelBuffer creates a buffer holding up to capacity samples.
// Capacity must be validated by the caller (config does this); values
// below 1 would make the ring degenerate.
func NewChannelBuffer(capacity int) *ChannelBuffer {
	return &ChannelBuffer{data: make([]ChannelSample, capacity)}
}

// Append adds a sample, evicting the oldest when at capacity. O(1).
func (b *ChannelBuffer) Append(s ChannelSample) {
	b.mu.Lock()
	b.data[b.pos] = s
	b.pos++
	if b.pos >= len(b.data) {
		b.pos = 0
		b.full = true
	}
	b.mu.Unlock()
}

// Len returns the number of samples currently held.
func (b *ChannelBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lenLocked()
}

func (b *ChannelBuffer) lenLocked() int {
	if b.full {
		return len(b.data)
	}
	return b.pos
}

// Snapshot returns the buffered samples oldest-to-newest as a fresh slice.
func (b *ChannelBuffer) Snapshot() []ChannelSample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := b.lenLocked()
	out := make([]ChannelSample, n)
	if b.full {
		copy(out, b.data[b.pos:])
		copy(out[len(b.data)-b.pos:], b.data[:b.pos])
	} else {
		copy(out, b.data[:b.pos])
	}
	return out
}

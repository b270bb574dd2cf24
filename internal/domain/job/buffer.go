package job

import "sync"

// DefaultBufferSize bounds the output kept per job.
const DefaultBufferSize = 1024 * 1024

// Buffer keeps the most recent bytes written to it.
type Buffer struct {
	mu        sync.RWMutex
	data      []byte
	size      int
	truncated bool
}

// NewBuffer creates a buffer holding at most size bytes.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffer{size: size}
}

// Write appends p, dropping the oldest bytes once the buffer is full.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(p) >= b.size {
		if len(b.data) > 0 || len(p) > b.size {
			b.truncated = true
		}
		b.data = append(b.data[:0], p[len(p)-b.size:]...)
		return len(p), nil
	}
	if over := len(b.data) + len(p) - b.size; over > 0 {
		b.data = append(b.data[:0], b.data[over:]...)
		b.truncated = true
	}
	b.data = append(b.data, p...)
	return len(p), nil
}

// Bytes returns a copy of the buffered output.
func (b *Buffer) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Truncated reports whether output was dropped.
func (b *Buffer) Truncated() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.truncated
}

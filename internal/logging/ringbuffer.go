package logging

import (
	"os"
	"sync"
)

// RingBuffer keeps the tail of the log stream in memory. The slog
// handler tees every record into it, so a SIGUSR1 crash dump can
// recover recent history even after file rotation discarded it.
// Implements io.Writer; old bytes are overwritten once full.
type RingBuffer struct {
	mu    sync.Mutex
	data  []byte
	start int // index of the oldest byte
	n     int // bytes currently held
}

// NewRingBuffer allocates a buffer holding the last size bytes written.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = 4 * 1024 * 1024
	}
	return &RingBuffer{data: make([]byte, size)}
}

// Write implements io.Writer and never fails; a write larger than the
// whole buffer keeps only its tail.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	written := len(p)
	if len(p) > len(rb.data) {
		p = p[len(p)-len(rb.data):]
	}

	end := (rb.start + rb.n) % len(rb.data)
	c := copy(rb.data[end:], p)
	copy(rb.data, p[c:])

	rb.n += len(p)
	if rb.n > len(rb.data) {
		rb.start = (rb.start + rb.n) % len(rb.data)
		rb.n = len(rb.data)
	}
	return written, nil
}

// Bytes returns the held contents, oldest first.
func (rb *RingBuffer) Bytes() []byte {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	out := make([]byte, rb.n)
	tail := rb.data[rb.start:]
	if len(tail) > rb.n {
		tail = tail[:rb.n]
	}
	c := copy(out, tail)
	copy(out[c:], rb.data[:rb.n-c])
	return out
}

// DumpToFile writes the contents to path, oldest first. Dumps can carry
// terminal output and chat text, so the file is owner-only.
func (rb *RingBuffer) DumpToFile(path string) error {
	return os.WriteFile(path, rb.Bytes(), 0o600)
}

package transport

import (
	"bytes"
)

// DefaultMaxResponseSize caps upstream response bodies (10MB). A slow
// or hostile upstream can stall a fetch until its deadline; it cannot
// exhaust host memory.
const DefaultMaxResponseSize = 10 * 1024 * 1024

// BoundedBuffer is a bytes.Buffer that stops retaining data at a
// limit. Writes past the limit are accepted and discarded so upstream
// copies never see a short-write error; Truncated records that it
// happened.
type BoundedBuffer struct {
	buffer    bytes.Buffer
	limit     int
	Truncated bool
}

// NewBoundedBuffer creates a BoundedBuffer with the given limit.
func NewBoundedBuffer(limit int) *BoundedBuffer {
	return &BoundedBuffer{limit: limit}
}

// Write implements io.Writer, retaining at most limit bytes.
func (b *BoundedBuffer) Write(p []byte) (n int, err error) {
	if b.buffer.Len() >= b.limit {
		b.Truncated = true
		return len(p), nil
	}

	remaining := b.limit - b.buffer.Len()
	if len(p) > remaining {
		b.Truncated = true
		if _, err := b.buffer.Write(p[:remaining]); err != nil {
			return 0, err
		}
		return len(p), nil
	}

	return b.buffer.Write(p)
}

// Bytes returns the retained contents.
func (b *BoundedBuffer) Bytes() []byte {
	return b.buffer.Bytes()
}

// String returns the retained contents as a string.
func (b *BoundedBuffer) String() string {
	return b.buffer.String()
}

// Len returns the retained length.
func (b *BoundedBuffer) Len() int {
	return b.buffer.Len()
}

// Reset clears the buffer and the Truncated flag.
func (b *BoundedBuffer) Reset() {
	b.buffer.Reset()
	b.Truncated = false
}

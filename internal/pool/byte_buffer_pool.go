// Package pool provides reusable byte buffers for the scratch allocations that
// appear on the LZ4 frame decompression path.
package pool

import "sync"

// Default and maximum sizes for pooled scratch buffers. DBD frames are
// small, so the thresholds here stay well below what a large multi-sensor
// payload could otherwise demand.
const (
	FrameBufferDefaultSize  = 1024 * 8  // 8KiB, large enough for one LZ4 frame
	FrameBufferMaxThreshold = 1024 * 64 // 64KiB, discard buffers larger than this
)

// ByteBuffer is a growable byte slice with an allocation strategy tuned for
// repeated, incremental writes (decompressed frame accumulation).
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the given starting capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer while retaining its capacity.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the number of bytes currently held.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the buffer's current capacity.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Write appends data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// Grow ensures the buffer can hold requiredBytes more bytes without a
// reallocation on the next write.
//
//   - For small buffers, grow by FrameBufferDefaultSize to limit the number
//     of reallocations during a decode.
//   - For larger buffers, grow by 25% of current capacity.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := FrameBufferDefaultSize
	if cap(bb.B) > 4*FrameBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// ByteBufferPool pools ByteBuffers, discarding ones that grew past
// maxThreshold to avoid retaining oversized buffers from a single outlier file.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool of buffers sized defaultSize, capped at maxThreshold.
func NewByteBufferPool(defaultSize, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any { return NewByteBuffer(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (p *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}
	if p.maxThreshold > 0 && cap(bb.B) > p.maxThreshold {
		return
	}
	bb.Reset()
	p.pool.Put(bb)
}

var framePool = NewByteBufferPool(FrameBufferDefaultSize, FrameBufferMaxThreshold)

// GetFrameBuffer retrieves a ByteBuffer from the default frame-decompression pool.
func GetFrameBuffer() *ByteBuffer {
	return framePool.Get()
}

// PutFrameBuffer returns a ByteBuffer to the default frame-decompression pool.
func PutFrameBuffer(bb *ByteBuffer) {
	framePool.Put(bb)
}

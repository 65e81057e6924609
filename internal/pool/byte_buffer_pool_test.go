package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	assert.Equal(t, 0, len(bb.B))
	assert.Equal(t, 1024, cap(bb.B))
}

func TestByteBuffer_WriteAndReset(t *testing.T) {
	bb := NewByteBuffer(FrameBufferDefaultSize)

	n, err := bb.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("hello"), bb.Bytes())

	bb.Reset()
	assert.Equal(t, 0, bb.Len())
}

func TestByteBuffer_Grow_SufficientCapacity(t *testing.T) {
	bb := NewByteBuffer(FrameBufferDefaultSize)
	originalCap := cap(bb.B)

	bb.Grow(100)

	assert.Equal(t, originalCap, cap(bb.B))
}

func TestByteBuffer_Grow_PreservesData(t *testing.T) {
	bb := NewByteBuffer(FrameBufferDefaultSize)
	data := []byte("important frame bytes")
	bb.B = append(bb.B, data...)

	bb.Grow(FrameBufferDefaultSize * 2)

	assert.Equal(t, data, bb.B)
}

func TestByteBuffer_Grow_LargeBuffer(t *testing.T) {
	bb := NewByteBuffer(FrameBufferDefaultSize)
	largeSize := 4*FrameBufferDefaultSize + 1024
	bb.B = make([]byte, largeSize)

	bb.Grow(2048)

	assert.GreaterOrEqual(t, cap(bb.B), largeSize+2048)
}

func TestByteBufferPool_GetPutReuse(t *testing.T) {
	pool := NewByteBufferPool(FrameBufferDefaultSize, FrameBufferMaxThreshold)

	bb := pool.Get()
	require.NotNil(t, bb)
	bb.B = append(bb.B, []byte("data")...)
	pool.Put(bb)

	bb2 := pool.Get()
	assert.Equal(t, 0, bb2.Len(), "buffer retrieved from pool should be reset")
}

func TestByteBufferPool_DiscardsOversizedBuffers(t *testing.T) {
	pool := NewByteBufferPool(1024, 4096)

	bb := pool.Get()
	bb.Grow(10000)
	assert.Greater(t, cap(bb.B), 4096)

	pool.Put(bb)

	bb2 := pool.Get()
	assert.LessOrEqual(t, cap(bb2.B), 4096*2)
}

func TestGetPutFrameBuffer(t *testing.T) {
	bb := GetFrameBuffer()
	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())

	bb.B = append(bb.B, []byte("frame")...)
	PutFrameBuffer(bb)

	bb2 := GetFrameBuffer()
	assert.Equal(t, 0, bb2.Len())
}

func TestPutFrameBuffer_Nil(t *testing.T) {
	assert.NotPanics(t, func() {
		PutFrameBuffer(nil)
	})
}

package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/oceangliders/dbd/errs"
	"github.com/oceangliders/dbd/internal/pool"
)

// lz4CompressorPool pools lz4.Compressor instances for reuse. The
// lz4.Compressor maintains internal state that benefits from reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Compressor implements the DBD compressed-file wire format: a stream
// of [2-byte big-endian frame length][LZ4 block] pairs, repeated until
// EOF. Compress produces a single such frame; Decompress accepts any
// number of them concatenated, as found in a whole compressed file.
type LZ4Compressor struct{}

var _ Codec = LZ4Compressor{}

// NewLZ4Compressor creates a new LZ4 frame-stream compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress produces one length-prefixed LZ4 frame from data. Callers
// wanting a multi-frame stream should chunk data themselves and
// concatenate the results.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) > 0xFFFF {
		return nil, fmt.Errorf("compress: frame of %d bytes exceeds uint16 length prefix", len(data))
	}

	dstSize := lz4.CompressBlockBound(len(data))
	dst := make([]byte, 2+dstSize)

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[2:])
	if err != nil {
		return nil, err
	}

	binary.BigEndian.PutUint16(dst[:2], uint16(n))

	return dst[:2+n], nil
}

// Decompress reads data as a repeating stream of 2-byte big-endian frame
// lengths each followed by an LZ4 block, and returns the concatenated
// plaintext of every frame. This is the format every `.?c?`-suffixed DBD
// file is stored in.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out := pool.GetFrameBuffer()
	defer pool.PutFrameBuffer(out)

	pos := 0
	for pos < len(data) {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated lz4 frame length at offset %d", errs.ErrIO, pos)
		}
		frameLen := int(binary.BigEndian.Uint16(data[pos : pos+2]))
		pos += 2

		if pos+frameLen > len(data) {
			return nil, fmt.Errorf("%w: truncated lz4 frame body at offset %d", errs.ErrIO, pos)
		}
		frame := data[pos : pos+frameLen]
		pos += frameLen

		plain, err := decompressBlock(frame)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4 frame at offset %d: %w", errs.ErrIO, pos-frameLen, err)
		}
		out.Write(plain)
	}

	result := make([]byte, out.Len())
	copy(result, out.Bytes())

	return result, nil
}

// decompressBlock decompresses a single LZ4 block whose uncompressed size
// is unknown, using adaptive buffer sizing:
//  1. Start with a buffer 8x the compressed size.
//  2. On ErrInvalidSourceShortBuffer, double the buffer size (up to maxSize).
//  3. Give up past maxSize; that indicates corrupted data or an
//     unreasonable compression ratio rather than a legitimately large frame.
func decompressBlock(frame []byte) ([]byte, error) {
	bufSize := len(frame) * 8
	if bufSize < pool.FrameBufferDefaultSize {
		bufSize = pool.FrameBufferDefaultSize
	}
	const maxSize = 16 * 1024 * 1024 // 16MB: far above any single DBD frame

	for bufSize <= maxSize {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(frame, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				bufSize *= 2
				continue
			}

			return nil, err
		}

		return buf[:n], nil
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}

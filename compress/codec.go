// Package compress provides the stream decompression codecs this module
// uses to transparently read compressed DBD files (filenames matching
// `.?c?`, e.g. `.dcd`/`.ecd`) before handing the plain byte stream to the
// header parser and record decoder.
package compress

import "fmt"

// Compressor compresses a whole in-memory byte stream.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses a whole in-memory byte stream produced by the
// matching Compressor, or (for the LZ4 codec) a raw on-disk DBD stream.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// Kind identifies which wire codec a suffix-matched DBD file uses.
type Kind uint8

const (
	// KindNone is the codec for files whose suffix carries no compression
	// marker: the record stream is read as-is.
	KindNone Kind = iota
	// KindLZ4 is the codec for `.?c?`-suffixed files: a stream of
	// 2-byte big-endian frame lengths each followed by an LZ4 block.
	KindLZ4
)

// IsCompressedSuffix reports whether a filename suffix matches the
// DBD compressed-file convention: a 4-character suffix whose third
// character is 'c' (`.dcd`, `.ecd`, `.scd`, `.tcd`, `.mcd`, `.ncd`, ...).
func IsCompressedSuffix(suffix string) bool {
	return len(suffix) == 4 && suffix[0] == '.' && (suffix[2] == 'c' || suffix[2] == 'C')
}

// GetCodec retrieves a built-in Codec for the given Kind.
func GetCodec(kind Kind) (Codec, error) {
	switch kind {
	case KindNone:
		return NewNoOpCompressor(), nil
	case KindLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("compress: unsupported codec kind %d", kind)
	}
}

package compress

// NoOpCompressor passes data through unchanged. It is the codec for DBD
// files whose suffix carries no compression marker.
type NoOpCompressor struct{}

var _ Codec = NoOpCompressor{}

// NewNoOpCompressor creates a new no-op compressor.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns data unchanged.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data unchanged.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

package compress

import "github.com/klauspost/compress/s2"

// S2Compressor is the format.CompressionS2 Codec: a Snappy-compatible
// codec that favors compression/decompression speed over ratio, for chunk
// payloads where write throughput matters more than archive size.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress compresses a chunk payload using S2 compression.
func (c S2Compressor) Compress(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, payload), nil
}

// Decompress restores a chunk payload compressed with Compress.
func (c S2Compressor) Decompress(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, stored)
}

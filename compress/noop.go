package compress

// NoOpCompressor is the Codec for format.CompressionNone: it stores chunk
// payloads as-is. A Writer whose Compression is left at its zero value does
// not use it: such a Writer has no Codec and runs no compression stage.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a no-operation compressor.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns payload unchanged.
//
// Note: the returned slice aliases payload. Callers should not mutate
// payload afterward if they still hold the returned slice.
func (c NoOpCompressor) Compress(payload []byte) ([]byte, error) {
	return payload, nil
}

// Decompress returns stored unchanged.
//
// Note: the returned slice aliases stored. Callers should not mutate
// stored afterward if they still hold the returned slice.
func (c NoOpCompressor) Decompress(stored []byte) ([]byte, error) {
	return stored, nil
}

//go:build nobuild

package compress

import (
	"github.com/valyala/gozstd"
)

// Compress compresses a chunk payload using cgo zstd.
func (c ZstdCompressor) Compress(payload []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, payload, 3), nil
}

// Decompress restores a chunk payload compressed with Compress.
func (c ZstdCompressor) Decompress(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return nil, nil
	}

	return gozstd.Decompress(nil, stored)
}

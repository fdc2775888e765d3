package compress

import (
	"github.com/apack/apack/format"
	"github.com/apack/apack/registry"
)

// Registry is the process-wide compression algorithm registry:
// built-in codecs are registered once at package init and looked up by
// either format.CompressionAlgorithm or a case-insensitive name.
var Registry = registry.New[Codec]()

func init() {
	Registry.Register(uint8(format.CompressionNone), "none", NewNoOpCompressor())
	Registry.Register(uint8(format.CompressionZstd), "zstd", NewZstdCompressor())
	Registry.Register(uint8(format.CompressionS2), "s2", NewS2Compressor())
	Registry.Register(uint8(format.CompressionLZ4), "lz4", NewLZ4Compressor())
}

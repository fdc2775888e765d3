// Package compress provides the pluggable compression codecs applied to
// chunk payloads in the checksum-compress-encrypt pipeline.
//
// # Supported Algorithms
//
// **NoOp** (format.CompressionNone) bypasses compression entirely; the
// payload is passed through unchanged. Used when the data is already
// incompressible or when CPU is more scarce than storage.
//
// **Zstandard** (format.CompressionZstd) has the best compression ratio of the
// four, moderate speed. Good default for archival-oriented entries.
//
// **S2** (format.CompressionS2) is a Snappy-derived algorithm trading some
// ratio for speed; good for entries written and read frequently.
//
// **LZ4** (format.CompressionLZ4) has the fastest decompression of the three
// real codecs, modest ratio.
//
// CreateCodec and GetCodec select an implementation by format.CompressionAlgorithm;
// callers outside this package should go through those rather than
// constructing a concrete codec type directly, so a new algorithm id only
// needs wiring in one place.
package compress

package chunk

import (
	"github.com/apack/apack/compress"
	"github.com/apack/apack/crypto"
	"github.com/apack/apack/format"
	"github.com/apack/apack/rs"
)

// StatsObserver receives one compress.CompressionStats value per chunk that
// ran through a Compressor, letting a caller (e.g. EntryStream.Stats)
// accumulate compression-ratio telemetry without Processor itself keeping
// entry-scoped state.
type StatsObserver func(compress.CompressionStats)

// Config selects the algorithms a Processor runs for one entry. All fields
// besides ChecksumAlg are optional; a nil value disables that stage.
type Config struct {
	// ChecksumAlg is the payload checksum algorithm. Every
	// chunk is checksummed regardless of the other stages.
	ChecksumAlg format.ChecksumAlgorithm

	// Compressor, when non-nil, compresses the checksummed plaintext
	// before encryption. Leave nil for CompressionNone.
	Compressor compress.Codec

	// CompressionAlg identifies Compressor for CompressionStats reporting.
	// Ignored when Compressor is nil.
	CompressionAlg format.CompressionAlgorithm

	// Cipher and DEK, when both set, seal the (possibly compressed)
	// payload with an AEAD. Leave Cipher nil for CipherNone.
	Cipher crypto.AEAD
	DEK    []byte

	// ECC, when non-nil, wraps the final on-disk payload (after
	// compression and encryption) in Reed-Solomon parity, per the
	// has_ecc resolution that ECC protects what is actually stored
	// rather than the plaintext.
	ECC *rs.Codec

	// OnStats, when non-nil, is called once per chunk that was compressed
	// with this chunk's CompressionStats.
	OnStats StatsObserver
}

package archive

import (
	"github.com/apack/apack/compress"
	"github.com/apack/apack/crypto"
	"github.com/apack/apack/errs"
	"github.com/apack/apack/format"
)

// Mode selects between the two archive layouts.
type Mode uint8

const (
	// ModeContainer produces a random-access archive: a container trailer
	// with a TOC enabling O(1) lookup by name or id.
	ModeContainer Mode = iota
	// ModeStream produces an append-only archive with no TOC; readers must
	// iterate entries linearly.
	ModeStream
)

const (
	// MinChunkSize and MaxChunkSize bound WriterConfig.ChunkSize.
	MinChunkSize = 1 << 10        // 1 KiB
	MaxChunkSize = 64 * (1 << 20) // 64 MiB

	// DefaultChunkSize is used when WriterConfig.ChunkSize is left zero.
	DefaultChunkSize = 256 * (1 << 10) // 256 KiB

	// MaxCompatLevel is the highest compat_level this implementation can
	// read. Writer always writes 0.
	MaxCompatLevel = 0

	// CurrentTrailerVersion is the container trailer_version this Writer emits.
	CurrentTrailerVersion = 1
)

// WriterConfig configures a Writer for the lifetime of one archive.
//
// Compression and encryption are archive-wide choices: every entry is
// offered the same compressor and, when configured, encrypted under the
// same session DEK. Per-entry ECC is opted into individually via
// EntryMeta.
type WriterConfig struct {
	// Mode selects container or stream layout. Zero value is ModeContainer.
	Mode Mode

	// ChunkSize is the maximum plaintext size of one chunk. Zero selects
	// DefaultChunkSize.
	ChunkSize int

	// ChecksumAlg selects the chunk payload checksum algorithm.
	// Zero value is format.ChecksumCRC32.
	ChecksumAlg format.ChecksumAlgorithm

	// Compression selects the archive-wide compressor. Zero value is
	// format.CompressionNone.
	Compression format.CompressionAlgorithm

	// Cipher selects the AEAD used to encrypt chunk payloads. Zero value
	// is format.CipherNone (no encryption block, no per-chunk encryption).
	Cipher format.CipherAlgorithm

	// KDF selects the password-based KDF used to derive the KEK that wraps
	// the session DEK. Ignored when Cipher is format.CipherNone.
	KDF format.KDFAlgorithm

	// Password must be non-empty when Cipher is not format.CipherNone.
	Password string
}

// validatedWriterConfig is the fully-resolved, defaulted form of a WriterConfig,
// produced once by newValidatedWriterConfig so Create fails eagerly on a
// bad configuration before any byte is written.
type validatedWriterConfig struct {
	mode        Mode
	chunkSize   int
	checksumAlg format.ChecksumAlgorithm
	compression format.CompressionAlgorithm
	compressor  compress.Codec // nil when compression == CompressionNone
	cipher      format.CipherAlgorithm
	kdf         format.KDFAlgorithm
	password    string
}

func newValidatedWriterConfig(cfg WriterConfig) (validatedWriterConfig, error) {
	v := validatedWriterConfig{
		mode:        cfg.Mode,
		chunkSize:   cfg.ChunkSize,
		checksumAlg: cfg.ChecksumAlg,
		compression: cfg.Compression,
		cipher:      cfg.Cipher,
		kdf:         cfg.KDF,
		password:    cfg.Password,
	}

	if v.chunkSize == 0 {
		v.chunkSize = DefaultChunkSize
	}
	if v.chunkSize < MinChunkSize || v.chunkSize > MaxChunkSize {
		return v, errs.ErrValueTooLarge
	}

	switch v.checksumAlg {
	case format.ChecksumCRC32, format.ChecksumXXH3_64, format.ChecksumXXH3_128:
	default:
		return v, errs.ErrInvalidFormat
	}

	if v.compression != format.CompressionNone {
		codec, err := compress.CreateCodec(v.compression, "writer")
		if err != nil {
			return v, err
		}
		v.compressor = codec
	}

	if v.cipher != format.CipherNone {
		if v.password == "" {
			return v, errs.ErrInvalidFormat
		}
		if _, err := crypto.NewAEAD(v.cipher); err != nil {
			return v, err
		}
		switch v.kdf {
		case format.KDFArgon2id, format.KDFPBKDF2HMACSHA256:
		default:
			return v, errs.ErrInvalidFormat
		}
	}

	return v, nil
}

// ReaderConfig configures Open.
type ReaderConfig struct {
	// Password unwraps the session DEK when the archive is encrypted.
	// Leave empty to open an encrypted archive for metadata-only access
	// (iteration, lookup); reading entry contents will then fail with
	// errs.ErrDecryptionFailed.
	Password string
}

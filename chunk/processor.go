package chunk

import (
	"fmt"
	"time"

	"github.com/apack/apack/checksum"
	"github.com/apack/apack/codec"
	"github.com/apack/apack/compress"
	"github.com/apack/apack/errs"
	"github.com/apack/apack/format"
)

// Processor runs the write/read pipeline for every chunk of one entry,
// using a fixed Config for the entry's lifetime.
type Processor struct {
	cfg Config
}

// NewProcessor creates a Processor bound to cfg.
func NewProcessor(cfg Config) *Processor {
	return &Processor{cfg: cfg}
}

// WriteChunk runs the write-path pipeline over plaintext and appends the
// resulting ChunkHeader and stored payload to w. index is this chunk's
// zero-based position within the entry; last marks the entry's final chunk.
func (p *Processor) WriteChunk(w *codec.Writer, index uint32, plaintext []byte, last bool) (format.ChunkHeader, error) {
	var header format.ChunkHeader

	sum, err := checksum.Sum(p.cfg.ChecksumAlg, plaintext)
	if err != nil {
		return header, err
	}

	stored := plaintext
	var flags format.ChunkFlags

	if p.cfg.Compressor != nil {
		compressStart := time.Now()
		compressed, err := p.cfg.Compressor.Compress(stored)
		if err != nil {
			return header, fmt.Errorf("%w: %v", errs.ErrCompressionFailed, err)
		}
		compressionTime := time.Since(compressStart)

		// Only adopt the compressed form (and set the flag) when it is
		// strictly shorter than the input; otherwise the chunk is stored
		// uncompressed.
		adopted := stored
		if len(compressed) < len(stored) {
			adopted = compressed
			flags |= format.ChunkCompressedFlag
		}

		if p.cfg.OnStats != nil {
			p.cfg.OnStats(compress.CompressionStats{
				Algorithm:         p.cfg.CompressionAlg,
				OriginalSize:      int64(len(stored)),
				CompressedSize:    int64(len(adopted)),
				CompressionTimeNs: compressionTime.Nanoseconds(),
			})
		}

		stored = adopted
	}

	if p.cfg.Cipher != nil {
		sealed, err := p.cfg.Cipher.Seal(p.cfg.DEK, stored)
		if err != nil {
			return header, err
		}
		stored = sealed
		flags |= format.ChunkEncryptedFlag
	}

	if p.cfg.ECC != nil {
		protected, err := encodeECC(p.cfg.ECC, stored)
		if err != nil {
			return header, err
		}
		stored = protected
	}

	if last {
		flags |= format.ChunkLast
	}

	header = format.ChunkHeader{
		ChunkIndex:   index,
		OriginalSize: uint32(len(plaintext)),
		StoredSize:   uint32(len(stored)),
		Checksum:     sum,
		Flags:        flags,
	}
	header.WriteTo(w)
	w.WriteBytes(stored)

	return header, nil
}

// ReadChunk parses one ChunkHeader and its payload from r, which must start
// at the chunk's magic, runs the inverse pipeline, and returns the
// reconstructed plaintext alongside the header (so callers can inspect
// ChunkLast and ChunkIndex without re-deriving them).
func (p *Processor) ReadChunk(r *codec.Reader) ([]byte, format.ChunkHeader, error) {
	header, err := format.ReadChunkHeader(r)
	if err != nil {
		return nil, header, err
	}

	stored, err := r.ReadBytes(int(header.StoredSize))
	if err != nil {
		return nil, header, err
	}

	if p.cfg.ECC != nil {
		stored, err = decodeECC(p.cfg.ECC, stored)
		if err != nil {
			return nil, header, err
		}
	}

	if header.Flags.Has(format.ChunkEncryptedFlag) {
		if p.cfg.Cipher == nil {
			return nil, header, errs.ErrInvalidFormat
		}
		stored, err = p.cfg.Cipher.Open(p.cfg.DEK, stored)
		if err != nil {
			return nil, header, err
		}
	}

	if header.Flags.Has(format.ChunkCompressedFlag) {
		if p.cfg.Compressor == nil {
			return nil, header, errs.ErrInvalidFormat
		}
		stored, err = p.cfg.Compressor.Decompress(stored)
		if err != nil {
			return nil, header, fmt.Errorf("%w: %v", errs.ErrCompressionFailed, err)
		}
	}

	if uint32(len(stored)) != header.OriginalSize {
		return nil, header, errs.ErrIntegrityFailure
	}

	sum, err := checksum.Sum(p.cfg.ChecksumAlg, stored)
	if err != nil {
		return nil, header, err
	}
	if sum != header.Checksum {
		return nil, header, errs.ErrIntegrityFailure
	}

	return stored, header, nil
}

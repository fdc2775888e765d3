package format

import "github.com/apack/apack/codec"

// ChunkHeaderSize is the fixed 24-byte size of a chunk header.
const ChunkHeaderSize = 24

// ChunkFlags packs the per-chunk state bits stored in the chunk header.
type ChunkFlags uint32

const (
	// ChunkLast marks the final chunk of an entry.
	ChunkLast ChunkFlags = 0x01
	// ChunkCompressedFlag marks that this chunk's stored payload is the
	// output of the entry's configured compressor, not raw plaintext.
	ChunkCompressedFlag ChunkFlags = 0x02
	// ChunkEncryptedFlag marks that this chunk's stored payload is
	// nonce||ciphertext rather than plaintext (or compressed plaintext).
	ChunkEncryptedFlag ChunkFlags = 0x04
)

// Has reports whether all bits in f are set.
func (c ChunkFlags) Has(f ChunkFlags) bool { return c&f == f }

// ChunkHeader precedes every chunk's stored payload.
type ChunkHeader struct {
	ChunkIndex   uint32
	OriginalSize uint32
	StoredSize   uint32
	Checksum     uint32
	Flags        ChunkFlags
}

var chnkMagic = [4]byte{'C', 'H', 'N', 'K'}

// WriteTo appends the encoded chunk header to w.
func (h *ChunkHeader) WriteTo(w *codec.Writer) {
	w.WriteMagic4(chnkMagic)
	w.WriteUint32(h.ChunkIndex)
	w.WriteUint32(h.OriginalSize)
	w.WriteUint32(h.StoredSize)
	w.WriteUint32(h.Checksum)
	w.WriteUint32(uint32(h.Flags))
}

// ReadChunkHeader parses a ChunkHeader from r, which must start at the
// chunk's magic.
func ReadChunkHeader(r *codec.Reader) (ChunkHeader, error) {
	var h ChunkHeader

	if err := r.ReadMagic4(chnkMagic); err != nil {
		return h, err
	}

	index, err := r.ReadUint32()
	if err != nil {
		return h, err
	}
	originalSize, err := r.ReadUint32()
	if err != nil {
		return h, err
	}
	storedSize, err := r.ReadUint32()
	if err != nil {
		return h, err
	}
	sum, err := r.ReadUint32()
	if err != nil {
		return h, err
	}
	flags, err := r.ReadUint32()
	if err != nil {
		return h, err
	}

	return ChunkHeader{
		ChunkIndex:   index,
		OriginalSize: originalSize,
		StoredSize:   storedSize,
		Checksum:     sum,
		Flags:        ChunkFlags(flags),
	}, nil
}

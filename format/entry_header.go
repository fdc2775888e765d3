package format

import (
	"hash/crc32"
	"math"

	"github.com/apack/apack/codec"
	"github.com/apack/apack/errs"
)

// EntryHeaderFixedSize is the 48-byte fixed-prefix size of an entry header,
// before its variable-length name/mime/attributes tail.
const EntryHeaderFixedSize = 48

// entryHeaderChecksumFieldOffset is where header_checksum sits within the
// fixed 48-byte prefix; it covers every other byte of the header,
// including the variable tail that physically follows it on disk.
const entryHeaderChecksumFieldOffset = 44

// EntryFlags packs the per-entry state bits stored in the entry header.
type EntryFlags uint8

const (
	// EntryFlagECC marks that every chunk of this entry is Reed-Solomon
	// protected. ECC is a per-entry choice, and the parity covers the final
	// on-disk chunk payload.
	EntryFlagECC EntryFlags = 0x01
)

// Has reports whether all bits in f are set.
func (f EntryFlags) Has(bit EntryFlags) bool { return f&bit == bit }

// AttributeType identifies the tagged variant stored in an AttributeValue.
type AttributeType uint8

const (
	AttrString  AttributeType = 0
	AttrInt64   AttributeType = 1
	AttrFloat64 AttributeType = 2
	AttrBool    AttributeType = 3
	AttrBytes   AttributeType = 4
)

// AttributeValue is a tagged value attached to an entry. Exactly one of the
// Str/I64/F64/Bool/Bytes fields is meaningful, selected by Type.
type AttributeValue struct {
	Type  AttributeType
	Str   string
	I64   int64
	F64   float64
	Bool  bool
	Bytes []byte
}

func StringValue(s string) AttributeValue  { return AttributeValue{Type: AttrString, Str: s} }
func Int64Value(v int64) AttributeValue    { return AttributeValue{Type: AttrInt64, I64: v} }
func Float64Value(v float64) AttributeValue { return AttributeValue{Type: AttrFloat64, F64: v} }
func BoolValue(v bool) AttributeValue      { return AttributeValue{Type: AttrBool, Bool: v} }
func BytesValue(b []byte) AttributeValue   { return AttributeValue{Type: AttrBytes, Bytes: b} }

// encodedLen returns the on-disk length of the value tail for this
// attribute (not including key_len/type/value_len themselves).
func (v AttributeValue) encodedLen() int {
	switch v.Type {
	case AttrInt64, AttrFloat64:
		return 8
	case AttrBool:
		return 1
	case AttrString:
		return len(v.Str)
	case AttrBytes:
		return len(v.Bytes)
	default:
		return 0
	}
}

// Attribute is a single (key, typed value) pair attached to an entry.
type Attribute struct {
	Key   string
	Value AttributeValue
}

func (a Attribute) writeTo(w *codec.Writer) error {
	if len(a.Key) > math.MaxUint16 {
		return errs.ErrValueTooLarge
	}
	valueLen := a.Value.encodedLen()

	w.WriteUint16(uint16(len(a.Key)))
	w.WriteUint8(uint8(a.Value.Type))
	w.WriteInt32(int32(valueLen))
	w.WriteBytes([]byte(a.Key))

	switch a.Value.Type {
	case AttrString:
		w.WriteBytes([]byte(a.Value.Str))
	case AttrInt64:
		w.WriteInt64(a.Value.I64)
	case AttrFloat64:
		w.WriteFloat64(a.Value.F64)
	case AttrBool:
		b := uint8(0)
		if a.Value.Bool {
			b = 1
		}
		w.WriteUint8(b)
	case AttrBytes:
		w.WriteBytes(a.Value.Bytes)
	default:
		return errs.ErrInvalidFormat
	}

	return nil
}

func readAttribute(r *codec.Reader) (Attribute, error) {
	var a Attribute

	keyLen, err := r.ReadUint16()
	if err != nil {
		return a, err
	}
	valueType, err := r.ReadUint8()
	if err != nil {
		return a, err
	}
	valueLen, err := r.ReadInt32()
	if err != nil {
		return a, err
	}
	keyBytes, err := r.ReadBytes(int(keyLen))
	if err != nil {
		return a, err
	}
	a.Key = string(keyBytes)

	t := AttributeType(valueType)
	switch t {
	case AttrInt64:
		if valueLen != 8 {
			return a, errs.ErrInvalidFormat
		}
		v, err := r.ReadInt64()
		if err != nil {
			return a, err
		}
		a.Value = Int64Value(v)
	case AttrFloat64:
		if valueLen != 8 {
			return a, errs.ErrInvalidFormat
		}
		v, err := r.ReadFloat64()
		if err != nil {
			return a, err
		}
		a.Value = Float64Value(v)
	case AttrBool:
		if valueLen != 1 {
			return a, errs.ErrInvalidFormat
		}
		v, err := r.ReadUint8()
		if err != nil {
			return a, err
		}
		a.Value = BoolValue(v != 0)
	case AttrString:
		b, err := r.ReadBytes(int(valueLen))
		if err != nil {
			return a, err
		}
		a.Value = StringValue(string(b))
	case AttrBytes:
		b, err := r.ReadBytes(int(valueLen))
		if err != nil {
			return a, err
		}
		a.Value = BytesValue(b)
	default:
		return a, errs.ErrInvalidFormat
	}

	return a, nil
}

// EntryHeader is the per-entry metadata record that precedes an entry's
// chunk records.
//
// The reserved u16 field at offset 6 has no meaning of its own in the byte
// layout; when EntryFlagECC is set, this implementation packs the entry's
// Reed-Solomon parameters into it (ECCParityBytes in the low byte,
// ECCInterleave in the high byte) so a reader can reconstruct the same
// rs.Codec the writer used without a wire field dedicated to it. Both values
// are zero and ignored when EntryFlagECC is clear.
type EntryHeader struct {
	HeaderVersion  uint8
	Flags          EntryFlags
	ECCParityBytes uint8
	ECCInterleave  uint8
	EntryID        int64
	OriginalSize   int64
	StoredSize     int64
	ChunkCount     int32
	CompressionID  CompressionAlgorithm
	EncryptionID   CipherAlgorithm
	Name           string
	MimeType       string
	Attributes     []Attribute
}

var entrMagic = [4]byte{'E', 'N', 'T', 'R'}

// WriteTo appends the encoded entry header to w, including alignment
// padding, and returns the absolute padded length written along with the
// header_checksum it computed (callers building a TOC reuse this value
// directly as entry_checksum instead of recomputing it).
func (h *EntryHeader) WriteTo(w *codec.Writer) (int, uint32, error) {
	if len(h.Name) == 0 || len(h.Name) > math.MaxUint16 {
		return 0, 0, errs.ErrInvalidFormat
	}
	if len(h.MimeType) > 255 {
		return 0, 0, errs.ErrValueTooLarge
	}
	if len(h.Attributes) > math.MaxUint16 {
		return 0, 0, errs.ErrValueTooLarge
	}

	// The tail (name, mime, attributes) is encoded into a side buffer
	// first: header_checksum, which sits inside the fixed 48-byte prefix,
	// must cover the tail too, so the tail's bytes must exist before the
	// checksum can be computed.
	tail := codec.NewWriter()
	defer tail.Release()

	// name and mime are raw byte runs; their lengths live in the fixed
	// prefix's name_len/mime_len fields, not in a length prefix of their own.
	tail.WriteBytes([]byte(h.Name))
	tail.WriteBytes([]byte(h.MimeType))
	for _, a := range h.Attributes {
		if err := a.writeTo(tail); err != nil {
			return 0, 0, err
		}
	}

	unpaddedLen := EntryHeaderFixedSize + tail.Offset()
	padLen := (8 - unpaddedLen%8) % 8

	start := w.Offset()
	w.WriteMagic4(entrMagic)
	w.WriteUint8(h.HeaderVersion)
	w.WriteUint8(uint8(h.Flags))
	w.WriteUint8(h.ECCParityBytes)
	w.WriteUint8(h.ECCInterleave)
	w.WriteInt64(h.EntryID)
	w.WriteInt64(h.OriginalSize)
	w.WriteInt64(h.StoredSize)
	w.WriteInt32(h.ChunkCount)
	w.WriteUint8(uint8(h.CompressionID))
	w.WriteUint8(uint8(h.EncryptionID))
	w.WriteUint16(uint16(len(h.Name)))
	w.WriteUint16(uint16(len(h.MimeType)))
	w.WriteUint16(uint16(len(h.Attributes)))

	tailBytes := tail.Bytes()
	padding := make([]byte, padLen)
	sum := crc32.ChecksumIEEE(concat(w.Bytes()[start:w.Offset()], tailBytes, padding))
	w.WriteUint32(sum)
	w.WriteBytes(tailBytes)
	w.WriteBytes(padding)

	return w.Offset() - start, sum, nil
}

// Entry header field offsets the writer patches after an entry's chunks
// have been streamed and its final sizes are known: chunk_count,
// original_size and stored_size are only recorded once the entry stream
// closes, well after the header itself has been appended to the archive
// buffer.
const (
	entryHeaderOriginalSizeOffset = 16
	entryHeaderStoredSizeOffset   = 24
	entryHeaderChunkCountOffset   = 32
)

// PatchFinalSizes overwrites the original_size, stored_size and chunk_count
// fields of an entry header previously written by WriteTo at headerStart,
// and recomputes header_checksum over the full header span (headerLen is
// the value WriteTo returned). It returns the recomputed checksum so the
// caller can reuse it as a TOC record's entry_checksum without re-reading
// the header back from the buffer.
func PatchFinalSizes(w *codec.Writer, headerStart, headerLen int, originalSize, storedSize int64, chunkCount int32) uint32 {
	w.PatchUint64(headerStart+entryHeaderOriginalSizeOffset, uint64(originalSize))
	w.PatchUint64(headerStart+entryHeaderStoredSizeOffset, uint64(storedSize))
	w.PatchUint32(headerStart+entryHeaderChunkCountOffset, uint32(chunkCount))

	span := concat(
		w.Bytes()[headerStart:headerStart+entryHeaderChecksumFieldOffset],
		w.Bytes()[headerStart+EntryHeaderFixedSize:headerStart+headerLen],
	)
	sum := crc32.ChecksumIEEE(span)
	w.PatchUint32(headerStart+entryHeaderChecksumFieldOffset, sum)

	return sum
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}

	return out
}

// ReadEntryHeader parses an EntryHeader from r, which must start at the
// entry's magic, and returns the number of bytes consumed (including
// alignment padding).
func ReadEntryHeader(r *codec.Reader) (EntryHeader, int, error) {
	var h EntryHeader

	start := r.Offset()

	if err := r.ReadMagic4(entrMagic); err != nil {
		return h, 0, err
	}
	hdrVersion, err := r.ReadUint8()
	if err != nil {
		return h, 0, err
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return h, 0, err
	}
	eccParity, err := r.ReadUint8()
	if err != nil {
		return h, 0, err
	}
	eccInterleave, err := r.ReadUint8()
	if err != nil {
		return h, 0, err
	}
	entryID, err := r.ReadInt64()
	if err != nil {
		return h, 0, err
	}
	originalSize, err := r.ReadInt64()
	if err != nil {
		return h, 0, err
	}
	storedSize, err := r.ReadInt64()
	if err != nil {
		return h, 0, err
	}
	chunkCount, err := r.ReadInt32()
	if err != nil {
		return h, 0, err
	}
	compressionID, err := r.ReadUint8()
	if err != nil {
		return h, 0, err
	}
	encryptionID, err := r.ReadUint8()
	if err != nil {
		return h, 0, err
	}
	nameLen, err := r.ReadUint16()
	if err != nil {
		return h, 0, err
	}
	mimeLen, err := r.ReadUint16()
	if err != nil {
		return h, 0, err
	}
	attrCount, err := r.ReadUint16()
	if err != nil {
		return h, 0, err
	}

	prefix := make([]byte, entryHeaderChecksumFieldOffset)
	copy(prefix, r.Bytes()[start:start+entryHeaderChecksumFieldOffset])

	wantChecksum, err := r.ReadUint32()
	if err != nil {
		return h, 0, err
	}

	nameBytes, err := r.ReadBytes(int(nameLen))
	if err != nil {
		return h, 0, err
	}
	mimeBytes, err := r.ReadBytes(int(mimeLen))
	if err != nil {
		return h, 0, err
	}

	attrs := make([]Attribute, 0, attrCount)
	for i := uint16(0); i < attrCount; i++ {
		a, err := readAttribute(r)
		if err != nil {
			return h, 0, err
		}
		attrs = append(attrs, a)
	}

	if err := r.SkipPadding(8); err != nil {
		return h, 0, err
	}
	consumed := r.Offset() - start

	tailAndPadding := r.Bytes()[start+EntryHeaderFixedSize : r.Offset()]
	gotChecksum := crc32.ChecksumIEEE(concat(prefix, tailAndPadding))
	if gotChecksum != wantChecksum {
		return h, 0, errs.ErrIntegrityFailure
	}

	h = EntryHeader{
		HeaderVersion:  hdrVersion,
		Flags:          EntryFlags(flags),
		ECCParityBytes: eccParity,
		ECCInterleave:  eccInterleave,
		EntryID:        entryID,
		OriginalSize:   originalSize,
		StoredSize:     storedSize,
		ChunkCount:     chunkCount,
		CompressionID:  CompressionAlgorithm(compressionID),
		EncryptionID:   CipherAlgorithm(encryptionID),
		Name:           string(nameBytes),
		MimeType:       string(mimeBytes),
		Attributes:     attrs,
	}

	return h, consumed, nil
}

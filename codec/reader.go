package codec

import (
	"math"

	"github.com/apack/apack/endian"
	"github.com/apack/apack/errs"
)

// Reader decodes little-endian primitives from an in-memory byte slice.
//
// Sections are always parsed from a fully-read buffer (a Parse(data
// []byte) convention) rather than incrementally from an io.Reader; callers
// read a fixed-size or length-prefixed span from the underlying stream
// first, then hand it to a Reader.
type Reader struct {
	data   []byte
	pos    int
	engine endian.EndianEngine
}

// NewReader creates a Reader over data using the little-endian engine.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, engine: endian.GetLittleEndianEngine()}
}

// Offset returns the current read position.
func (r *Reader) Offset() int { return r.pos }

// Bytes returns the full underlying buffer the Reader was constructed over.
// Structural checksums (header_checksum, trailer_checksum, toc_checksum)
// are computed over raw spans of this buffer rather than through the
// primitive read methods.
func (r *Reader) Bytes() []byte { return r.data }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return errs.ErrUnexpectedEOF
	}

	return nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++

	return v, nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := r.engine.Uint16(r.data[r.pos : r.pos+2])
	r.pos += 2

	return v, nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := r.engine.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4

	return v, nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := r.engine.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8

	return v, nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadBytes reads and returns a copy of the next n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n

	return out, nil
}

// ReadFileMagic validates the 6-byte file-header magic "APACK"+0x00.
func (r *Reader) ReadFileMagic() error {
	if err := r.need(6); err != nil {
		return errs.ErrUnexpectedEOF
	}
	b := r.data[r.pos : r.pos+6]
	if b[0] != 'A' || b[1] != 'P' || b[2] != 'A' || b[3] != 'C' || b[4] != 'K' || b[5] != 0x00 {
		return errs.ErrInvalidFormat
	}
	r.pos += 6

	return nil
}

// ReadMagic4 reads and validates a bare 4-byte ASCII section magic.
func (r *Reader) ReadMagic4(want [4]byte) error {
	if err := r.need(4); err != nil {
		return err
	}
	b := r.data[r.pos : r.pos+4]
	if b[0] != want[0] || b[1] != want[1] || b[2] != want[2] || b[3] != want[3] {
		return errs.ErrInvalidFormat
	}
	r.pos += 4

	return nil
}

// ReadString reads a UTF-8 string with a 16-bit little-endian byte-length
// prefix.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// SkipPadding advances the reader so its position is a multiple of align,
// failing with ErrUnexpectedEOF if insufficient bytes remain.
func (r *Reader) SkipPadding(align int) error {
	rem := r.pos % align
	if rem == 0 {
		return nil
	}
	pad := align - rem

	return r.advance(pad)
}

func (r *Reader) advance(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n

	return nil
}

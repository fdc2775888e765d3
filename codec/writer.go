package codec

import (
	"math"

	"github.com/apack/apack/endian"
	"github.com/apack/apack/errs"
	"github.com/apack/apack/internal/pool"
)

// Writer accumulates little-endian encoded bytes into a pooled buffer.
//
// A Writer is not safe for concurrent use; a single archive session is
// owned by one logical context at a time.
type Writer struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	large  bool
}

// NewWriter creates a Writer using the little-endian engine, the only byte
// order the wire format permits.
func NewWriter() *Writer {
	return &Writer{
		buf:    pool.GetBuffer(),
		engine: endian.GetLittleEndianEngine(),
	}
}

// NewLargeWriter creates a Writer backed by the large buffer pool. Use this
// for the TOC, whose size scales with archive entry count and can
// routinely outgrow a regular Writer's default buffer (a TOC
// record is 40 bytes, so a 1000-entry container trailer alone needs 40KiB).
func NewLargeWriter() *Writer {
	return &Writer{
		buf:    pool.GetLargeBuffer(),
		engine: endian.GetLittleEndianEngine(),
		large:  true,
	}
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int { return w.buf.Len() }

// Bytes returns the accumulated buffer. The slice is owned by the Writer;
// callers must copy it before the Writer is reused or released.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Reset clears the writer for reuse.
func (w *Writer) Reset() { w.buf.Reset() }

// Release returns the underlying buffer to the pool it came from. The
// Writer must not be used after Release.
func (w *Writer) Release() {
	if w.large {
		pool.PutLargeBuffer(w.buf)
		return
	}
	pool.PutBuffer(w.buf)
}

func (w *Writer) WriteUint8(v uint8)   { w.buf.MustWrite([]byte{v}) }
func (w *Writer) WriteBytes(b []byte)  { w.buf.MustWrite(b) }

func (w *Writer) WriteUint16(v uint16) {
	var tmp [2]byte
	w.engine.PutUint16(tmp[:], v)
	w.buf.MustWrite(tmp[:])
}

func (w *Writer) WriteUint32(v uint32) {
	var tmp [4]byte
	w.engine.PutUint32(tmp[:], v)
	w.buf.MustWrite(tmp[:])
}

func (w *Writer) WriteUint64(v uint64) {
	var tmp [8]byte
	w.engine.PutUint64(tmp[:], v)
	w.buf.MustWrite(tmp[:])
}

func (w *Writer) WriteInt32(v int32) { w.WriteUint32(uint32(v)) }
func (w *Writer) WriteInt64(v int64) { w.WriteUint64(uint64(v)) }

func (w *Writer) WriteFloat64(v float64) { w.WriteUint64(math.Float64bits(v)) }

// WriteMagic4 writes a bare 4-byte ASCII magic (ENTR, CHNK, ATRL, STRL,
// ENCR) with no trailing byte.
func (w *Writer) WriteMagic4(magic [4]byte) { w.buf.MustWrite(magic[:]) }

// WriteFileMagic writes the file header's 6-byte magic: "APACK" followed by
// a single 0x00 byte.
func (w *Writer) WriteFileMagic() {
	w.buf.MustWrite([]byte{'A', 'P', 'A', 'C', 'K', 0x00})
}

// WriteString writes a UTF-8 string with a 16-bit little-endian byte-length
// prefix. Fails with ErrValueTooLarge if the string exceeds 65535 bytes.
func (w *Writer) WriteString(s string) error {
	if len(s) > math.MaxUint16 {
		return errs.ErrValueTooLarge
	}
	w.WriteUint16(uint16(len(s)))
	w.buf.MustWrite([]byte(s))

	return nil
}

// Pad advances the writer with zero bytes until its running offset is a
// multiple of align. align must be a power of two.
func (w *Writer) Pad(align int) {
	rem := w.buf.Len() % align
	if rem == 0 {
		return
	}
	pad := align - rem
	zeros := make([]byte, pad)
	w.buf.MustWrite(zeros)
}

// PatchUint32 overwrites the 4 bytes at offset with v. Used to back-fill a
// checksum field that must cover bytes written after it (trailer_checksum
// covers file_size, which is only known once the trailer is otherwise
// complete).
func (w *Writer) PatchUint32(offset int, v uint32) {
	w.engine.PutUint32(w.buf.B[offset:offset+4], v)
}

// PatchUint64 overwrites the 8 bytes at offset with v.
func (w *Writer) PatchUint64(offset int, v uint64) {
	w.engine.PutUint64(w.buf.B[offset:offset+8], v)
}

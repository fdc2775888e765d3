package format

import (
	"hash/crc32"

	"github.com/apack/apack/codec"
	"github.com/apack/apack/errs"
)

// TOCEntrySize is the fixed 40-byte size of a single table-of-contents
// record.
const TOCEntrySize = 40

// TOCEntry is a fixed-size random-access descriptor stored in the container
// trailer, one per archive entry, in entry emission order.
type TOCEntry struct {
	ID            uint64
	EntryOffset   uint64
	OriginalSize  uint64
	StoredSize    uint64
	NameHash      uint32
	EntryChecksum uint32
}

func (t TOCEntry) writeTo(w *codec.Writer) {
	w.WriteUint64(t.ID)
	w.WriteUint64(t.EntryOffset)
	w.WriteUint64(t.OriginalSize)
	w.WriteUint64(t.StoredSize)
	w.WriteUint32(t.NameHash)
	w.WriteUint32(t.EntryChecksum)
}

func readTOCEntry(r *codec.Reader) (TOCEntry, error) {
	var t TOCEntry

	id, err := r.ReadUint64()
	if err != nil {
		return t, err
	}
	offset, err := r.ReadUint64()
	if err != nil {
		return t, err
	}
	originalSize, err := r.ReadUint64()
	if err != nil {
		return t, err
	}
	storedSize, err := r.ReadUint64()
	if err != nil {
		return t, err
	}
	nameHash, err := r.ReadUint32()
	if err != nil {
		return t, err
	}
	entryChecksum, err := r.ReadUint32()
	if err != nil {
		return t, err
	}

	return TOCEntry{
		ID:            id,
		EntryOffset:   offset,
		OriginalSize:  originalSize,
		StoredSize:    storedSize,
		NameHash:      nameHash,
		EntryChecksum: entryChecksum,
	}, nil
}

// ContainerTrailerHeaderSize is the fixed 64-byte size of the container
// trailer's own header, not counting the TOC records that follow it.
const ContainerTrailerHeaderSize = 64

// tocChecksumFieldOffset and trailerChecksumFieldOffset locate the two
// checksum fields within the 64-byte trailer header.
const (
	tocChecksumFieldOffset     = 0x30
	trailerChecksumFieldOffset = 0x34
)

var atrlMagic = [4]byte{'A', 'T', 'R', 'L'}

// ContainerTrailer is the random-access trailer written at the end of a
// container-mode archive: a 64-byte header plus entry_count TOC records.
type ContainerTrailer struct {
	TrailerVersion    int32
	TOCOffset         int64
	TOCSize           int64
	EntryCount        int64
	TotalOriginalSize int64
	TotalStoredSize   int64
	FileSize          int64
	TOC               []TOCEntry
}

// WriteTo appends the encoded trailer (header + TOC) to w, computing
// toc_checksum and trailer_checksum as it goes.
func (t *ContainerTrailer) WriteTo(w *codec.Writer) error {
	if int64(len(t.TOC)) != t.EntryCount {
		return errs.ErrInvalidFormat
	}

	headerStart := w.Offset()

	w.WriteMagic4(atrlMagic)
	w.WriteInt32(t.TrailerVersion)
	w.WriteInt64(t.TOCOffset)
	w.WriteInt64(t.TOCSize)
	w.WriteInt64(t.EntryCount)
	w.WriteInt64(t.TotalOriginalSize)
	w.WriteInt64(t.TotalStoredSize)

	tocBuf := codec.NewLargeWriter()
	defer tocBuf.Release()
	for _, e := range t.TOC {
		e.writeTo(tocBuf)
	}
	tocChecksum := crc32.ChecksumIEEE(tocBuf.Bytes())
	w.WriteUint32(tocChecksum)

	w.WriteUint32(0) // trailer_checksum placeholder, patched below
	w.WriteInt64(t.FileSize)

	headerEnd := w.Offset()
	trailerChecksum := crc32.ChecksumIEEE(concat(
		w.Bytes()[headerStart:headerStart+trailerChecksumFieldOffset],
		w.Bytes()[headerStart+trailerChecksumFieldOffset+4:headerEnd],
	))
	w.PatchUint32(headerStart+trailerChecksumFieldOffset, trailerChecksum)

	w.WriteBytes(tocBuf.Bytes())

	return nil
}

// ReadContainerTrailer parses a ContainerTrailer from r, which must start at
// the trailer's magic and contain at least the 64-byte header plus
// entry_count TOC records.
func ReadContainerTrailer(r *codec.Reader) (ContainerTrailer, error) {
	var t ContainerTrailer

	headerStart := r.Offset()

	if err := r.ReadMagic4(atrlMagic); err != nil {
		return t, err
	}
	version, err := r.ReadInt32()
	if err != nil {
		return t, err
	}
	tocOffset, err := r.ReadInt64()
	if err != nil {
		return t, err
	}
	tocSize, err := r.ReadInt64()
	if err != nil {
		return t, err
	}
	entryCount, err := r.ReadInt64()
	if err != nil {
		return t, err
	}
	totalOriginal, err := r.ReadInt64()
	if err != nil {
		return t, err
	}
	totalStored, err := r.ReadInt64()
	if err != nil {
		return t, err
	}
	wantTOCChecksum, err := r.ReadUint32()
	if err != nil {
		return t, err
	}
	wantTrailerChecksum, err := r.ReadUint32()
	if err != nil {
		return t, err
	}
	fileSize, err := r.ReadInt64()
	if err != nil {
		return t, err
	}

	headerEnd := r.Offset()
	gotTrailerChecksum := crc32.ChecksumIEEE(concat(
		r.Bytes()[headerStart:headerStart+trailerChecksumFieldOffset],
		r.Bytes()[headerStart+trailerChecksumFieldOffset+4:headerEnd],
	))
	if gotTrailerChecksum != wantTrailerChecksum {
		return t, errs.ErrIntegrityFailure
	}

	toc := make([]TOCEntry, 0, entryCount)
	tocStart := r.Offset()
	for i := int64(0); i < entryCount; i++ {
		e, err := readTOCEntry(r)
		if err != nil {
			return t, err
		}
		toc = append(toc, e)
	}
	gotTOCChecksum := crc32.ChecksumIEEE(r.Bytes()[tocStart:r.Offset()])
	if gotTOCChecksum != wantTOCChecksum {
		return t, errs.ErrIntegrityFailure
	}

	t = ContainerTrailer{
		TrailerVersion:    version,
		TOCOffset:         tocOffset,
		TOCSize:           tocSize,
		EntryCount:        entryCount,
		TotalOriginalSize: totalOriginal,
		TotalStoredSize:   totalStored,
		FileSize:          fileSize,
		TOC:               toc,
	}

	return t, nil
}

// StreamTrailerSize is the fixed 32-byte size of the stream-mode trailer.
const StreamTrailerSize = 32

var strlMagic = [4]byte{'S', 'T', 'R', 'L'}

// StreamTrailer is the summary-only trailer written at the end of a
// stream-mode archive: no TOC, just aggregate counters.
type StreamTrailer struct {
	OriginalSize int64
	StoredSize   int64
	ChunkCount   int32
}

// WriteTo appends the encoded stream trailer to w.
func (t *StreamTrailer) WriteTo(w *codec.Writer) {
	start := w.Offset()

	w.WriteMagic4(strlMagic)
	w.WriteInt32(0) // reserved
	w.WriteInt64(t.OriginalSize)
	w.WriteInt64(t.StoredSize)
	w.WriteInt32(t.ChunkCount)

	sum := crc32.ChecksumIEEE(w.Bytes()[start:w.Offset()])
	w.WriteUint32(sum)
}

// ReadStreamTrailer parses a StreamTrailer from r, which must start at the
// trailer's magic.
func ReadStreamTrailer(r *codec.Reader) (StreamTrailer, error) {
	var t StreamTrailer

	start := r.Offset()

	if err := r.ReadMagic4(strlMagic); err != nil {
		return t, err
	}
	if _, err := r.ReadInt32(); err != nil { // reserved
		return t, err
	}
	originalSize, err := r.ReadInt64()
	if err != nil {
		return t, err
	}
	storedSize, err := r.ReadInt64()
	if err != nil {
		return t, err
	}
	chunkCount, err := r.ReadInt32()
	if err != nil {
		return t, err
	}

	body := r.Bytes()[start:r.Offset()]

	wantChecksum, err := r.ReadUint32()
	if err != nil {
		return t, err
	}
	if crc32.ChecksumIEEE(body) != wantChecksum {
		return t, errs.ErrIntegrityFailure
	}

	return StreamTrailer{
		OriginalSize: originalSize,
		StoredSize:   storedSize,
		ChunkCount:   chunkCount,
	}, nil
}

package format

import (
	"hash/crc32"

	"github.com/apack/apack/codec"
	"github.com/apack/apack/errs"
)

// FileHeaderSize is the fixed 64-byte size of the file header.
const FileHeaderSize = 64

// headerChecksumSpan is the number of leading bytes header_checksum covers
// (bytes 0x00-0x0F).
const headerChecksumSpan = 16

// ModeFlags packs the archive-wide mode bits stored in the file header.
type ModeFlags uint8

const (
	// ModeStream marks a stream-mode archive: no TOC, linear entry layout,
	// 32-byte trailer.
	ModeStream ModeFlags = 0x01
	// ModeEncrypted marks that an EncryptionBlock immediately follows the
	// file header.
	ModeEncrypted ModeFlags = 0x02
	// ModeCompressed is an archive-wide hint that most chunks are expected
	// to be compressed; the per-chunk COMPRESSED flag is authoritative.
	ModeCompressed ModeFlags = 0x04
	// ModeRandomAccess marks a container-mode archive: trailer carries a
	// TOC enabling O(1) lookup by name or id.
	ModeRandomAccess ModeFlags = 0x08
)

// Has reports whether all bits in f are set.
func (m ModeFlags) Has(f ModeFlags) bool { return m&f == f }

// Validate enforces the mutual exclusion between stream
// and random-access mode.
func (m ModeFlags) Validate() error {
	if m.Has(ModeStream) && m.Has(ModeRandomAccess) {
		return errs.ErrInvalidHeaderFlags
	}

	return nil
}

// FileHeader is the first 64 bytes of every APACK archive.
//
// The on-disk major version byte is the 0x00 terminator baked into
// codec.WriteFileMagic/ReadFileMagic; every archive this package writes is
// major version 0, so FileHeader has no VerMajor field: a valid file
// begins with the literal 6 bytes 41 50 41 43 4B 00.
type FileHeader struct {
	VerMinor            uint8
	VerPatch            uint8
	CompatLevel         uint8
	ModeFlags           ModeFlags
	ChecksumAlg         ChecksumAlgorithm
	ChunkSize           int32
	EntryCount          int64
	TrailerOffset       int64
	CreationTimestampMs int64
}

// WriteTo appends the encoded file header to w, computing header_checksum
// over the first 16 bytes as it goes.
func (h *FileHeader) WriteTo(w *codec.Writer) error {
	if err := h.ModeFlags.Validate(); err != nil {
		return err
	}

	start := w.Offset()
	w.WriteFileMagic()
	w.WriteUint8(h.VerMinor)
	w.WriteUint8(h.VerPatch)
	w.WriteUint8(h.CompatLevel)
	w.WriteUint8(uint8(h.ModeFlags))
	w.WriteUint8(uint8(h.ChecksumAlg))
	w.WriteUint8(0) // reserved
	w.WriteInt32(h.ChunkSize)

	sum := crc32.ChecksumIEEE(w.Bytes()[start : start+headerChecksumSpan])
	w.WriteUint32(sum)
	w.WriteInt64(h.EntryCount)
	w.WriteInt64(h.TrailerOffset)
	w.WriteInt64(h.CreationTimestampMs)
	w.WriteBytes(make([]byte, 20)) // reserved

	return nil
}

// ReadFileHeader parses a 64-byte FileHeader from r, which must start at the
// first byte of the archive.
func ReadFileHeader(r *codec.Reader) (FileHeader, error) {
	var h FileHeader

	if err := r.ReadFileMagic(); err != nil {
		return h, err
	}

	verMinor, err := r.ReadUint8()
	if err != nil {
		return h, err
	}
	verPatch, err := r.ReadUint8()
	if err != nil {
		return h, err
	}
	compatLevel, err := r.ReadUint8()
	if err != nil {
		return h, err
	}
	modeFlags, err := r.ReadUint8()
	if err != nil {
		return h, err
	}
	checksumAlg, err := r.ReadUint8()
	if err != nil {
		return h, err
	}
	if _, err := r.ReadUint8(); err != nil { // reserved
		return h, err
	}
	chunkSize, err := r.ReadInt32()
	if err != nil {
		return h, err
	}

	wantChecksum := crc32.ChecksumIEEE(r.Bytes()[:headerChecksumSpan])

	gotChecksum, err := r.ReadUint32()
	if err != nil {
		return h, err
	}
	if gotChecksum != wantChecksum {
		return h, errs.ErrIntegrityFailure
	}

	entryCount, err := r.ReadInt64()
	if err != nil {
		return h, err
	}
	trailerOffset, err := r.ReadInt64()
	if err != nil {
		return h, err
	}
	createdMs, err := r.ReadInt64()
	if err != nil {
		return h, err
	}
	if _, err := r.ReadBytes(20); err != nil { // reserved
		return h, err
	}

	h = FileHeader{
		VerMinor:            verMinor,
		VerPatch:            verPatch,
		CompatLevel:         compatLevel,
		ModeFlags:           ModeFlags(modeFlags),
		ChecksumAlg:         ChecksumAlgorithm(checksumAlg),
		ChunkSize:           chunkSize,
		EntryCount:          entryCount,
		TrailerOffset:       trailerOffset,
		CreationTimestampMs: createdMs,
	}

	return h, h.ModeFlags.Validate()
}

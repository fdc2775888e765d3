package archive

import (
	"io"

	"github.com/apack/apack/checksum"
	"github.com/apack/apack/chunk"
	"github.com/apack/apack/codec"
	"github.com/apack/apack/compress"
	"github.com/apack/apack/crypto"
	"github.com/apack/apack/errs"
	"github.com/apack/apack/format"
	"github.com/apack/apack/rs"
)

// EntryHandle is a located entry: its full header plus the absolute offset
// of its first chunk, sufficient to stream its content without a second
// header read.
type EntryHandle struct {
	header     format.EntryHeader
	chunkStart int
}

// Info returns the read-only summary of the located entry.
func (h EntryHandle) Info() EntryInfo { return entryInfoFromHeader(h.header) }

// Reader opens and reads an APACK archive. The entire source is
// read into memory once during Open; see the archive package doc comment.
//
// A Reader is not safe for concurrent use; callers must serialize access to
// one Reader instance.
type Reader struct {
	data   []byte
	header format.FileHeader

	encrypted bool
	encBlock  format.EncryptionBlock
	cipher    crypto.AEAD
	dek       *crypto.Material

	entriesStart int
	toc          []format.TOCEntry

	closed bool
}

// Open reads and validates source, returning a Reader positioned to serve
// lookups and iteration. If the archive is
// encrypted and cfg.Password is non-empty, the session DEK is unwrapped
// immediately; a wrong password fails Open with errs.ErrDecryptionFailed.
// An empty password on an encrypted archive still opens successfully for
// metadata-only access.
func Open(source io.Reader, cfg ReaderConfig) (*Reader, error) {
	data, err := io.ReadAll(source)
	if err != nil {
		return nil, err
	}

	r := codec.NewReader(data)

	header, err := format.ReadFileHeader(r)
	if err != nil {
		return nil, err
	}
	if header.CompatLevel > MaxCompatLevel {
		return nil, errs.ErrUnsupportedVersion
	}

	rdr := &Reader{data: data, header: header}

	if header.ModeFlags.Has(format.ModeEncrypted) {
		block, err := format.ReadEncryptionBlock(r)
		if err != nil {
			return nil, err
		}
		rdr.encrypted = true
		rdr.encBlock = block

		if cfg.Password != "" {
			dek, err := crypto.UnwrapForPassword(block, cfg.Password)
			if err != nil {
				return nil, err
			}
			cipher, err := crypto.NewAEAD(block.CipherAlg)
			if err != nil {
				dek.Wipe()
				return nil, err
			}
			rdr.dek = dek
			rdr.cipher = cipher
		}
	}

	rdr.entriesStart = r.Offset()

	if header.ModeFlags.Has(format.ModeRandomAccess) {
		if int64(len(data)) < header.TrailerOffset {
			return nil, errs.ErrInvalidHeaderSize
		}
		trailerReader := codec.NewReader(data[header.TrailerOffset:])
		trailer, err := format.ReadContainerTrailer(trailerReader)
		if err != nil {
			return nil, err
		}
		if trailer.FileSize != int64(len(data)) {
			return nil, errs.ErrInvalidFormat
		}
		rdr.toc = trailer.TOC
	} else {
		toc, err := scanStreamEntries(data, rdr.entriesStart, header.EntryCount)
		if err != nil {
			return nil, err
		}
		rdr.toc = toc
	}

	return rdr, nil
}

// scanStreamEntries linearly walks entryCount entries starting at offset
// start, reading each entry header and skipping its chunk payloads (by
// stored_size, never decoding them) to build a synthetic TOC for stream-
// mode archives.
func scanStreamEntries(data []byte, start int, entryCount int64) ([]format.TOCEntry, error) {
	r := codec.NewReader(data)
	if err := skipTo(r, start); err != nil {
		return nil, err
	}

	toc := make([]format.TOCEntry, 0, entryCount)
	for i := int64(0); i < entryCount; i++ {
		entryOffset := r.Offset()

		// An entry header's padding is relative to its own start, so it is
		// parsed from a reader that begins at the header.
		header, consumed, err := format.ReadEntryHeader(codec.NewReader(data[entryOffset:]))
		if err != nil {
			return nil, err
		}
		if _, err := r.ReadBytes(consumed); err != nil {
			return nil, err
		}

		for {
			ch, err := format.ReadChunkHeader(r)
			if err != nil {
				return nil, err
			}
			if _, err := r.ReadBytes(int(ch.StoredSize)); err != nil {
				return nil, err
			}
			if ch.Flags.Has(format.ChunkLast) {
				break
			}
		}

		toc = append(toc, format.TOCEntry{
			ID:           uint64(header.EntryID),
			EntryOffset:  uint64(entryOffset),
			OriginalSize: uint64(header.OriginalSize),
			StoredSize:   uint64(header.StoredSize),
			NameHash:     checksum.NameHash32(header.Name),
		})
	}

	return toc, nil
}

func skipTo(r *codec.Reader, offset int) error {
	if r.Offset() > offset {
		return errs.ErrInvalidFormat
	}
	if r.Offset() == offset {
		return nil
	}
	_, err := r.ReadBytes(offset - r.Offset())
	return err
}

// readEntryAt reads the full entry header located at byte offset off.
func (r *Reader) readEntryAt(off uint64) (EntryHandle, error) {
	if off > uint64(len(r.data)) {
		return EntryHandle{}, errs.ErrInvalidFormat
	}
	reader := codec.NewReader(r.data[off:])
	header, _, err := format.ReadEntryHeader(reader)
	if err != nil {
		return EntryHandle{}, err
	}

	return EntryHandle{header: header, chunkStart: int(off) + reader.Offset()}, nil
}

// GetByName looks up an entry by its exact name: hash it, scan the TOC
// for matching hashes, then confirm against the full name string.
// It returns ok=false, not an error, when no entry matches.
func (r *Reader) GetByName(name string) (EntryHandle, bool, error) {
	if r.closed {
		return EntryHandle{}, false, errs.ErrAlreadyClosed
	}

	want := checksum.NameHash32(name)
	for _, t := range r.toc {
		if t.NameHash != want {
			continue
		}
		h, err := r.readEntryAt(t.EntryOffset)
		if err != nil {
			return EntryHandle{}, false, err
		}
		if h.header.Name == name {
			return h, true, nil
		}
	}

	return EntryHandle{}, false, nil
}

// RequireByName is GetByName but fails with errs.ErrEntryNotFound instead
// of returning ok=false.
func (r *Reader) RequireByName(name string) (EntryHandle, error) {
	h, ok, err := r.GetByName(name)
	if err != nil {
		return EntryHandle{}, err
	}
	if !ok {
		return EntryHandle{}, errs.ErrEntryNotFound
	}

	return h, nil
}

// GetByID looks up an entry by its assigned id.
func (r *Reader) GetByID(id uint64) (EntryHandle, bool, error) {
	if r.closed {
		return EntryHandle{}, false, errs.ErrAlreadyClosed
	}

	for _, t := range r.toc {
		if t.ID != id {
			continue
		}
		h, err := r.readEntryAt(t.EntryOffset)
		if err != nil {
			return EntryHandle{}, false, err
		}

		return h, true, nil
	}

	return EntryHandle{}, false, nil
}

// RequireByID is GetByID but fails with errs.ErrEntryNotFound.
func (r *Reader) RequireByID(id uint64) (EntryHandle, error) {
	h, ok, err := r.GetByID(id)
	if err != nil {
		return EntryHandle{}, err
	}
	if !ok {
		return EntryHandle{}, errs.ErrEntryNotFound
	}

	return h, nil
}

// Iterate returns every entry in the archive in TOC order, which mirrors
// entry emission order.
func (r *Reader) Iterate() ([]EntryHandle, error) {
	if r.closed {
		return nil, errs.ErrAlreadyClosed
	}

	handles := make([]EntryHandle, 0, len(r.toc))
	for _, t := range r.toc {
		h, err := r.readEntryAt(t.EntryOffset)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}

	return handles, nil
}

// processorFor builds the chunk.Processor matching the algorithms recorded
// in an entry's header, inverting exactly what Writer configured when it
// wrote that entry.
func (r *Reader) processorFor(h format.EntryHeader) (*chunk.Processor, error) {
	cfg := chunk.Config{ChecksumAlg: r.header.ChecksumAlg}

	if h.CompressionID != format.CompressionNone {
		compressor, err := compress.GetCodec(h.CompressionID)
		if err != nil {
			return nil, err
		}
		cfg.Compressor = compressor
	}

	if h.EncryptionID != format.CipherNone {
		if r.cipher == nil || r.dek == nil {
			return nil, errs.ErrDecryptionFailed
		}
		cfg.Cipher = r.cipher
		cfg.DEK = r.dek.Bytes()
	}

	if h.Flags.Has(format.EntryFlagECC) {
		c, err := rs.NewCodec(int(h.ECCParityBytes), int(h.ECCInterleave))
		if err != nil {
			return nil, err
		}
		cfg.ECC = c
	}

	return chunk.NewProcessor(cfg), nil
}

// ReadAll decodes and returns the complete content of the located entry.
func (r *Reader) ReadAll(h EntryHandle) ([]byte, error) {
	if r.closed {
		return nil, errs.ErrAlreadyClosed
	}

	processor, err := r.processorFor(h.header)
	if err != nil {
		return nil, err
	}

	reader := codec.NewReader(r.data[h.chunkStart:])
	out := make([]byte, 0, h.header.OriginalSize)
	for i := int32(0); i < h.header.ChunkCount; i++ {
		plaintext, chunkHeader, err := processor.ReadChunk(reader)
		if err != nil {
			return nil, err
		}
		out = append(out, plaintext...)
		if chunkHeader.Flags.Has(format.ChunkLast) {
			break
		}
	}

	return out, nil
}

// OpenEntry returns a streaming io.Reader over the located entry's content,
// decoding one chunk at a time rather than materializing the whole entry
// up front.
func (r *Reader) OpenEntry(h EntryHandle) (*EntryReader, error) {
	if r.closed {
		return nil, errs.ErrAlreadyClosed
	}

	processor, err := r.processorFor(h.header)
	if err != nil {
		return nil, err
	}

	return &EntryReader{
		reader:    codec.NewReader(r.data[h.chunkStart:]),
		processor: processor,
		remaining: h.header.ChunkCount,
	}, nil
}

// EntryReader streams one entry's plaintext content one chunk at a time.
type EntryReader struct {
	reader    *codec.Reader
	processor *chunk.Processor
	remaining int32
	buf       []byte
	done      bool
}

// Read implements io.Reader, decoding additional chunks as needed.
func (e *EntryReader) Read(p []byte) (int, error) {
	for len(e.buf) == 0 {
		if e.done {
			return 0, io.EOF
		}
		if e.remaining <= 0 {
			e.done = true
			return 0, io.EOF
		}

		plaintext, header, err := e.processor.ReadChunk(e.reader)
		if err != nil {
			return 0, err
		}
		e.buf = plaintext
		e.remaining--
		if header.Flags.Has(format.ChunkLast) {
			e.remaining = 0
		}
	}

	n := copy(p, e.buf)
	e.buf = e.buf[n:]

	return n, nil
}

// Close releases the Reader's key material. Reading after Close fails
// deterministically since the underlying data buffer is dropped.
func (r *Reader) Close() error {
	if r.closed {
		return errs.ErrAlreadyClosed
	}
	r.closed = true
	r.dek.Wipe()
	r.data = nil

	return nil
}

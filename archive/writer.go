package archive

import (
	"errors"
	"io"
	"time"

	"github.com/apack/apack/checksum"
	"github.com/apack/apack/chunk"
	"github.com/apack/apack/codec"
	"github.com/apack/apack/compress"
	"github.com/apack/apack/crypto"
	"github.com/apack/apack/errs"
	"github.com/apack/apack/format"
	"github.com/apack/apack/internal/collision"
	"github.com/apack/apack/rs"
)

// writerState tracks the Writer lifecycle: Open -> (AddingEntry
// -> StreamingChunks)* -> Closing -> Closed.
type writerState uint8

const (
	stateOpen writerState = iota
	stateStreaming
	stateClosed
)

// ErrEntryInProgress is returned by AddEntry when the previous EntryStream
// has not been closed yet. It is a caller-ordering error, not a format or
// I/O failure, so it lives here rather than in errs.
var ErrEntryInProgress = errors.New("apack: previous entry stream is still open")

// Writer produces an APACK archive, buffering the entire encoded output in
// memory until Close flushes it to the configured sink (see the archive
// package doc comment for why no io.Seeker is required).
//
// A Writer is not safe for concurrent use; callers must serialize access to
// one Writer instance.
type Writer struct {
	sink io.Writer
	cfg  validatedWriterConfig
	buf  *codec.Writer

	mode      format.ModeFlags
	state     writerState
	poisoned  bool
	nextID    uint64
	collision *collision.Tracker

	toc               []format.TOCEntry
	entryCount        int64
	totalOriginalSize int64
	totalStoredSize   int64
	totalChunkCount   int32

	cipher crypto.AEAD
	dek    *crypto.Material

	cur *EntryStream
}

// Create writes the file header (and, if configured, the encryption block)
// to an in-memory buffer and returns a Writer ready to accept entries.
// Nothing is written to sink until Close.
func Create(sink io.Writer, cfg WriterConfig) (*Writer, error) {
	v, err := newValidatedWriterConfig(cfg)
	if err != nil {
		return nil, err
	}

	mode := format.ModeFlags(0)
	if v.mode == ModeStream {
		mode |= format.ModeStream
	} else {
		mode |= format.ModeRandomAccess
	}
	if v.compression != format.CompressionNone {
		mode |= format.ModeCompressed
	}

	var cipherAEAD crypto.AEAD
	var dek *crypto.Material
	var block format.EncryptionBlock
	if v.cipher != format.CipherNone {
		mode |= format.ModeEncrypted

		d, err := crypto.NewDEK()
		if err != nil {
			return nil, err
		}

		b, err := crypto.WrapForPassword(v.kdf, v.cipher, v.password, d)
		if err != nil {
			d.Wipe()
			return nil, err
		}

		a, err := crypto.NewAEAD(v.cipher)
		if err != nil {
			d.Wipe()
			return nil, err
		}

		cipherAEAD, dek, block = a, d, b
	}

	buf := codec.NewWriter()
	header := format.FileHeader{
		ModeFlags:           mode,
		ChecksumAlg:         v.checksumAlg,
		ChunkSize:           int32(v.chunkSize),
		CreationTimestampMs: nowMs(),
	}
	if err := header.WriteTo(buf); err != nil {
		dek.Wipe()
		buf.Release()
		return nil, err
	}
	if mode.Has(format.ModeEncrypted) {
		if err := block.WriteTo(buf); err != nil {
			dek.Wipe()
			buf.Release()
			return nil, err
		}
	}

	return &Writer{
		sink:      sink,
		cfg:       v,
		buf:       buf,
		mode:      mode,
		nextID:    1,
		collision: collision.NewTracker(),
		cipher:    cipherAEAD,
		dek:       dek,
	}, nil
}

// nowMs returns the current time as Unix milliseconds. Isolated in its own
// function so tests can document what field it fills without depending on
// wall-clock behavior elsewhere.
func nowMs() int64 { return time.Now().UnixMilli() }

// CollisionCount returns the number of distinct entry names that have
// hashed to the same TOC name_hash so far. Collisions are legal; the
// count is purely diagnostic.
func (w *Writer) CollisionCount() int { return w.collision.Count() }

// AddEntry begins streaming a new entry's chunks.
// The returned EntryStream must be closed before another entry can be
// added; Writer.Close closes it first if it is still open.
func (w *Writer) AddEntry(meta EntryMeta) (*EntryStream, error) {
	if w.state == stateClosed {
		return nil, errs.ErrAlreadyClosed
	}
	if w.poisoned {
		return nil, errs.ErrPoisoned
	}
	if w.state == stateStreaming {
		return nil, ErrEntryInProgress
	}
	if err := meta.validate(); err != nil {
		return nil, err
	}

	id := meta.ID
	if id == 0 {
		id = w.nextID
	}
	if id >= w.nextID {
		w.nextID = id + 1
	}

	stream := &EntryStream{}

	chunkCfg := chunk.Config{ChecksumAlg: w.cfg.checksumAlg}
	if w.cfg.compressor != nil {
		chunkCfg.Compressor = w.cfg.compressor
		chunkCfg.CompressionAlg = w.cfg.compression
		chunkCfg.OnStats = stream.recordStats
	}
	if w.cipher != nil {
		chunkCfg.Cipher = w.cipher
		chunkCfg.DEK = w.dek.Bytes()
	}

	flags := format.EntryFlags(0)
	var eccParity, eccInterleave uint8
	if meta.ECC {
		flags |= format.EntryFlagECC
		eccParity, eccInterleave = meta.ECCParityBytes, meta.ECCInterleave
		c, err := rs.NewCodec(int(eccParity), int(eccInterleave))
		if err != nil {
			return nil, err
		}
		chunkCfg.ECC = c
	}

	header := format.EntryHeader{
		Flags:          flags,
		ECCParityBytes: eccParity,
		ECCInterleave:  eccInterleave,
		EntryID:        int64(id),
		CompressionID:  w.cfg.compression,
		EncryptionID:   w.cfg.cipher,
		Name:           meta.Name,
		MimeType:       meta.MimeType,
		Attributes:     meta.Attributes,
	}

	headerStart := w.buf.Offset()
	headerLen, _, err := header.WriteTo(w.buf)
	if err != nil {
		w.poisoned = true
		return nil, err
	}

	w.state = stateStreaming
	stream.writer = w
	stream.meta = meta
	stream.id = id
	stream.headerStart = headerStart
	stream.headerLen = headerLen
	stream.processor = chunk.NewProcessor(chunkCfg)
	stream.chunkSize = w.cfg.chunkSize
	w.cur = stream

	return stream, nil
}

// Close writes the trailer (container or stream, per the archive mode), patches
// the file header's entry_count and trailer_offset, and flushes the whole
// buffered archive to sink. Close is idempotent after the first call: a
// second call returns errs.ErrAlreadyClosed. An EntryStream still open when
// Close is called is closed first, which flushes its final chunk.
//
// Close on a poisoned Writer releases the internal buffer without writing
// anything to sink: a poisoned Writer still releases resources but never
// finalizes the trailer.
func (w *Writer) Close() error {
	if w.state == stateClosed {
		return errs.ErrAlreadyClosed
	}

	var streamErr error
	if w.state == stateStreaming && w.cur != nil && !w.poisoned {
		streamErr = w.cur.Close()
	}
	w.state = stateClosed
	w.dek.Wipe()

	if w.poisoned {
		w.buf.Release()
		return streamErr
	}

	trailerOffset := w.buf.Offset()

	if w.cfg.mode == ModeStream {
		trailer := format.StreamTrailer{
			OriginalSize: w.totalOriginalSize,
			StoredSize:   w.totalStoredSize,
			ChunkCount:   w.totalChunkCount,
		}
		trailer.WriteTo(w.buf)
	} else {
		fileSize := int64(trailerOffset) + format.ContainerTrailerHeaderSize + w.entryCount*format.TOCEntrySize
		trailer := format.ContainerTrailer{
			TrailerVersion:    CurrentTrailerVersion,
			TOCOffset:         int64(trailerOffset) + format.ContainerTrailerHeaderSize,
			TOCSize:           w.entryCount * format.TOCEntrySize,
			EntryCount:        w.entryCount,
			TotalOriginalSize: w.totalOriginalSize,
			TotalStoredSize:   w.totalStoredSize,
			FileSize:          fileSize,
			TOC:               w.toc,
		}
		if err := trailer.WriteTo(w.buf); err != nil {
			w.buf.Release()
			return err
		}
	}

	const (
		entryCountFieldOffset    = 0x14
		trailerOffsetFieldOffset = 0x1C
	)
	w.buf.PatchUint64(entryCountFieldOffset, uint64(w.entryCount))
	w.buf.PatchUint64(trailerOffsetFieldOffset, uint64(trailerOffset))

	_, err := w.sink.Write(w.buf.Bytes())
	w.buf.Release()

	return err
}

// EntryStream is the append-only write handle for one entry's content,
// returned by Writer.AddEntry. Write buffers input and emits one chunk per
// full ChunkSize-sized buffer; Close flushes the final (possibly short or
// empty) chunk with the LAST flag set.
type EntryStream struct {
	writer      *Writer
	meta        EntryMeta
	id          uint64
	headerStart int
	headerLen   int
	processor   *chunk.Processor
	chunkSize   int

	pending      []byte
	chunkIndex   uint32
	originalSize int64
	storedSize   int64
	closed       bool

	compressedOriginal int64
	compressedStored   int64
}

// recordStats accumulates one chunk's compress.CompressionStats into the
// entry's running totals. Registered as the chunk.Processor's StatsObserver only when
// the Writer has a compressor configured.
func (s *EntryStream) recordStats(stats compress.CompressionStats) {
	s.compressedOriginal += stats.OriginalSize
	s.compressedStored += stats.CompressedSize
}

// Stats returns the cumulative compression statistics for every chunk
// written so far. The zero value (Algorithm CompressionNone, Ratio 0) is
// returned when the Writer was not configured with a compressor.
func (s *EntryStream) Stats() compress.CompressionStats {
	return compress.CompressionStats{
		Algorithm:      s.writer.cfg.compression,
		OriginalSize:   s.compressedOriginal,
		CompressedSize: s.compressedStored,
	}
}

// Write buffers p and flushes full ChunkSize chunks as they accumulate. Any
// write or pipeline failure poisons the owning Writer.
func (s *EntryStream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, errs.ErrAlreadyClosed
	}
	if s.writer.poisoned {
		return 0, errs.ErrPoisoned
	}

	s.pending = append(s.pending, p...)
	for len(s.pending) >= s.chunkSize {
		if err := s.flush(s.pending[:s.chunkSize], false); err != nil {
			s.writer.poisoned = true
			return 0, err
		}
		s.pending = s.pending[s.chunkSize:]
	}

	return len(p), nil
}

func (s *EntryStream) flush(data []byte, last bool) error {
	header, err := s.processor.WriteChunk(s.writer.buf, s.chunkIndex, data, last)
	if err != nil {
		return err
	}
	s.chunkIndex++
	s.originalSize += int64(header.OriginalSize)
	s.storedSize += int64(header.StoredSize)
	s.writer.totalChunkCount++

	return nil
}

// Close flushes the final chunk, patches the entry header's final sizes,
// appends a TOC record (container mode), and returns the Writer to the
// Open state.
func (s *EntryStream) Close() error {
	if s.closed {
		return errs.ErrAlreadyClosed
	}
	s.closed = true

	if s.writer.poisoned {
		s.writer.state = stateOpen
		s.writer.cur = nil
		return errs.ErrPoisoned
	}

	if err := s.flush(s.pending, true); err != nil {
		s.writer.poisoned = true
		s.writer.state = stateOpen
		s.writer.cur = nil
		return err
	}
	s.pending = nil

	entryChecksum := format.PatchFinalSizes(s.writer.buf, s.headerStart, s.headerLen, s.originalSize, s.storedSize, int32(s.chunkIndex))

	nameHash := checksum.NameHash32(s.meta.Name)
	s.writer.collision.Track(nameHash, s.meta.Name)

	if s.writer.cfg.mode != ModeStream {
		s.writer.toc = append(s.writer.toc, format.TOCEntry{
			ID:            s.id,
			EntryOffset:   uint64(s.headerStart),
			OriginalSize:  uint64(s.originalSize),
			StoredSize:    uint64(s.storedSize),
			NameHash:      nameHash,
			EntryChecksum: entryChecksum,
		})
	}

	s.writer.entryCount++
	s.writer.totalOriginalSize += s.originalSize
	s.writer.totalStoredSize += s.storedSize

	s.writer.state = stateOpen
	s.writer.cur = nil

	return nil
}

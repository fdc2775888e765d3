package archive_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apack/apack/archive"
)

// TestWireLayoutMinimalArchive pins the exact on-disk bytes of the smallest
// useful container archive: one entry "hello.txt" holding "Hello, World!",
// no compression, no encryption, CRC32 payload checksums.
func TestWireLayoutMinimalArchive(t *testing.T) {
	var buf bytes.Buffer

	w, err := archive.Create(&buf, archive.WriterConfig{})
	require.NoError(t, err)
	writeEntry(t, w, archive.EntryMeta{Name: "hello.txt"}, []byte("Hello, World!"))
	require.NoError(t, w.Close())

	data := buf.Bytes()
	le := binary.LittleEndian

	// File header: magic plus null terminator, entry_count 1.
	require.Equal(t, []byte{0x41, 0x50, 0x41, 0x43, 0x4B, 0x00}, data[:6])
	require.EqualValues(t, 1, le.Uint64(data[0x14:]))

	// Entry header immediately follows the 64-byte file header, and its
	// 48-byte fixed prefix plus the 9-byte name pads to the next 8-byte
	// boundary (57 -> 64), so the chunk record starts at 128.
	require.Equal(t, []byte("ENTR"), data[64:68])
	require.Equal(t, []byte("CHNK"), data[128:132])

	// Chunk header: index 0, original and stored size both 13 (no
	// compression), CRC32("Hello, World!"), LAST flag only.
	require.EqualValues(t, 0, le.Uint32(data[132:]))
	require.EqualValues(t, 13, le.Uint32(data[136:]))
	require.EqualValues(t, 13, le.Uint32(data[140:]))
	require.EqualValues(t, 0xEC4AC3D0, le.Uint32(data[144:]))
	require.EqualValues(t, 0x01, le.Uint32(data[148:]))
	require.Equal(t, []byte("Hello, World!"), data[152:165])

	// trailer_offset points at the trailer magic, and the trailer's
	// file_size field equals the actual file length.
	trailerOffset := le.Uint64(data[0x1C:])
	require.EqualValues(t, 165, trailerOffset)
	require.Equal(t, []byte("ATRL"), data[trailerOffset:trailerOffset+4])
	require.EqualValues(t, len(data), le.Uint64(data[trailerOffset+0x38:]))
}

package format_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apack/apack/codec"
	"github.com/apack/apack/errs"
	"github.com/apack/apack/format"
)

func TestChunkHeaderRoundTrip(t *testing.T) {
	h := format.ChunkHeader{
		ChunkIndex:   9,
		OriginalSize: 262144,
		StoredSize:   131072,
		Checksum:     0xDEADBEEF,
		Flags:        format.ChunkLast | format.ChunkCompressedFlag,
	}

	w := codec.NewWriter()
	defer w.Release()
	h.WriteTo(w)
	require.Len(t, w.Bytes(), format.ChunkHeaderSize)

	got, err := format.ReadChunkHeader(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, h, got)
	require.True(t, got.Flags.Has(format.ChunkLast))
	require.False(t, got.Flags.Has(format.ChunkEncryptedFlag))
}

func TestChunkHeaderRejectsBadMagic(t *testing.T) {
	_, err := format.ReadChunkHeader(codec.NewReader([]byte("JUNKxxxxxxxxxxxxxxxxxxxx")))
	require.ErrorIs(t, err, errs.ErrInvalidFormat)
}

package format_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apack/apack/codec"
	"github.com/apack/apack/errs"
	"github.com/apack/apack/format"
)

func TestEncryptionBlockRoundTrip(t *testing.T) {
	b := format.EncryptionBlock{
		KDFAlg:         format.KDFArgon2id,
		CipherAlg:      format.CipherChaCha20Poly1305,
		KDFIterations:  2,
		KDFMemoryKiB:   19 * 1024,
		KDFParallelism: 1,
		Salt:           []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		WrappedKey:     make([]byte, 32),
	}
	for i := range b.WrapTag {
		b.WrapTag[i] = byte(i)
	}

	w := codec.NewWriter()
	defer w.Release()
	require.NoError(t, b.WriteTo(w))
	require.Len(t, w.Bytes(), b.Size())

	got, err := format.ReadEncryptionBlock(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, b, got)
}

func TestEncryptionBlockRejectsBadMagic(t *testing.T) {
	b := format.EncryptionBlock{Salt: make([]byte, 16), WrappedKey: make([]byte, 32)}

	w := codec.NewWriter()
	defer w.Release()
	require.NoError(t, b.WriteTo(w))

	corrupted := append([]byte(nil), w.Bytes()...)
	corrupted[0] = 'X'

	_, err := format.ReadEncryptionBlock(codec.NewReader(corrupted))
	require.ErrorIs(t, err, errs.ErrInvalidFormat)
}

func TestEncryptionBlockTruncated(t *testing.T) {
	b := format.EncryptionBlock{Salt: make([]byte, 16), WrappedKey: make([]byte, 32)}

	w := codec.NewWriter()
	defer w.Release()
	require.NoError(t, b.WriteTo(w))

	_, err := format.ReadEncryptionBlock(codec.NewReader(w.Bytes()[:len(w.Bytes())-4]))
	require.ErrorIs(t, err, errs.ErrUnexpectedEOF)
}

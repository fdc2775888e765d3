package chunk_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apack/apack/chunk"
	"github.com/apack/apack/codec"
	"github.com/apack/apack/compress"
	"github.com/apack/apack/crypto"
	"github.com/apack/apack/format"
	"github.com/apack/apack/rs"
)

func roundTrip(t *testing.T, cfg chunk.Config, payload []byte) {
	t.Helper()

	p := chunk.NewProcessor(cfg)

	w := codec.NewWriter()
	defer w.Release()

	_, err := p.WriteChunk(w, 0, payload, true)
	require.NoError(t, err)

	r := codec.NewReader(w.Bytes())
	got, header, err := p.ReadChunk(r)
	require.NoError(t, err)
	require.Equal(t, payload, got)
	require.True(t, header.Flags.Has(format.ChunkLast))
	require.EqualValues(t, len(payload), header.OriginalSize)
}

func TestProcessorChecksumOnly(t *testing.T) {
	cfg := chunk.Config{ChecksumAlg: format.ChecksumXXH3_64}
	roundTrip(t, cfg, []byte("hello apack"))
}

func TestProcessorWithCompression(t *testing.T) {
	cfg := chunk.Config{
		ChecksumAlg: format.ChecksumCRC32,
		Compressor:  compress.NewZstdCompressor(),
	}
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i % 7)
	}
	roundTrip(t, cfg, payload)
}

func TestProcessorWithEncryption(t *testing.T) {
	dek, err := crypto.NewDEK()
	require.NoError(t, err)
	defer dek.Wipe()

	cipher, err := crypto.NewAEAD(format.CipherAES256GCM)
	require.NoError(t, err)

	cfg := chunk.Config{
		ChecksumAlg: format.ChecksumCRC32,
		Cipher:      cipher,
		DEK:         dek.Bytes(),
	}
	roundTrip(t, cfg, []byte("secret payload contents"))
}

func TestProcessorSkipsCompressionWhenNotSmaller(t *testing.T) {
	cfg := chunk.Config{
		ChecksumAlg:    format.ChecksumCRC32,
		Compressor:     compress.NewZstdCompressor(),
		CompressionAlg: format.CompressionZstd,
	}
	p := chunk.NewProcessor(cfg)

	// Incompressible: a deterministic pseudo-random byte stream. Zstd's
	// output on this input is not shorter than the input, so the chunk
	// must be stored uncompressed with the COMPRESSED flag clear.
	payload := make([]byte, 2048)
	rand.New(rand.NewSource(1)).Read(payload)

	w := codec.NewWriter()
	defer w.Release()

	_, err := p.WriteChunk(w, 0, payload, true)
	require.NoError(t, err)

	r := codec.NewReader(w.Bytes())
	got, header, err := p.ReadChunk(r)
	require.NoError(t, err)
	require.Equal(t, payload, got)
	require.False(t, header.Flags.Has(format.ChunkCompressedFlag))
	require.EqualValues(t, len(payload), header.StoredSize)
}

func TestProcessorWithECCSingleBlock(t *testing.T) {
	eccCodec, err := rs.NewCodec(4, 1)
	require.NoError(t, err)

	cfg := chunk.Config{
		ChecksumAlg: format.ChecksumCRC32,
		ECC:         eccCodec,
	}
	roundTrip(t, cfg, []byte("short payload protected by parity"))
}

func TestProcessorWithECCMultiBlock(t *testing.T) {
	eccCodec, err := rs.NewCodec(4, 2)
	require.NoError(t, err)

	cfg := chunk.Config{
		ChecksumAlg: format.ChecksumCRC32,
		ECC:         eccCodec,
	}

	blockSize := (255 - eccCodec.ParityBytes()) * eccCodec.Interleave()
	payload := make([]byte, blockSize*3+17) // forces a short trailing block
	for i := range payload {
		payload[i] = byte(i * 31)
	}
	roundTrip(t, cfg, payload)
}

func TestProcessorWithECCEmptyPayload(t *testing.T) {
	eccCodec, err := rs.NewCodec(4, 1)
	require.NoError(t, err)

	cfg := chunk.Config{
		ChecksumAlg: format.ChecksumCRC32,
		ECC:         eccCodec,
	}
	roundTrip(t, cfg, []byte{})
}

func TestProcessorFullPipeline(t *testing.T) {
	dek, err := crypto.NewDEK()
	require.NoError(t, err)
	defer dek.Wipe()

	cipher, err := crypto.NewAEAD(format.CipherChaCha20Poly1305)
	require.NoError(t, err)

	eccCodec, err := rs.NewCodec(6, 4)
	require.NoError(t, err)

	cfg := chunk.Config{
		ChecksumAlg: format.ChecksumXXH3_128,
		Compressor:  compress.NewLZ4Compressor(),
		Cipher:      cipher,
		DEK:         dek.Bytes(),
		ECC:         eccCodec,
	}

	payload := make([]byte, 9000)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	roundTrip(t, cfg, payload)
}

func TestProcessorIntegrityFailureOnTamper(t *testing.T) {
	cfg := chunk.Config{ChecksumAlg: format.ChecksumCRC32}
	p := chunk.NewProcessor(cfg)

	w := codec.NewWriter()
	defer w.Release()
	_, err := p.WriteChunk(w, 0, []byte("untampered"), true)
	require.NoError(t, err)

	tampered := append([]byte(nil), w.Bytes()...)
	tampered[len(tampered)-1] ^= 0xFF

	r := codec.NewReader(tampered)
	_, _, err = p.ReadChunk(r)
	require.Error(t, err)
}

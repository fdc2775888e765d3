package archive_test

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apack/apack/archive"
	"github.com/apack/apack/errs"
	"github.com/apack/apack/format"
)

func buildArchive(t *testing.T, cfg archive.WriterConfig, entries map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := archive.Create(&buf, cfg)
	require.NoError(t, err)

	for name, content := range entries {
		writeEntry(t, w, archive.EntryMeta{Name: name}, content)
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func TestReaderGetByNameMissingReturnsNotFoundBool(t *testing.T) {
	data := buildArchive(t, archive.WriterConfig{}, map[string][]byte{"present": []byte("x")})

	r, err := archive.Open(bytes.NewReader(data), archive.ReaderConfig{})
	require.NoError(t, err)
	defer r.Close()

	_, ok, err := r.GetByName("absent")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReaderRequireByNameMissingFailsWithSentinel(t *testing.T) {
	data := buildArchive(t, archive.WriterConfig{}, map[string][]byte{"present": []byte("x")})

	r, err := archive.Open(bytes.NewReader(data), archive.ReaderConfig{})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.RequireByName("absent")
	require.ErrorIs(t, err, errs.ErrEntryNotFound)
}

func TestReaderGetByID(t *testing.T) {
	var buf bytes.Buffer
	w, err := archive.Create(&buf, archive.WriterConfig{})
	require.NoError(t, err)

	es, err := w.AddEntry(archive.EntryMeta{ID: 42, Name: "tagged"})
	require.NoError(t, err)
	_, err = es.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, es.Close())
	require.NoError(t, w.Close())

	r, err := archive.Open(&buf, archive.ReaderConfig{})
	require.NoError(t, err)
	defer r.Close()

	h, err := r.RequireByID(42)
	require.NoError(t, err)
	require.Equal(t, "tagged", h.Info().Name)

	_, err = r.RequireByID(99)
	require.ErrorIs(t, err, errs.ErrEntryNotFound)
}

func TestReaderOpenEntryStreamsInChunks(t *testing.T) {
	payload := bytes.Repeat([]byte("streamed-content-"), 1000)

	var buf bytes.Buffer
	w, err := archive.Create(&buf, archive.WriterConfig{ChunkSize: archive.MinChunkSize})
	require.NoError(t, err)
	writeEntry(t, w, archive.EntryMeta{Name: "big"}, payload)
	require.NoError(t, w.Close())

	r, err := archive.Open(&buf, archive.ReaderConfig{})
	require.NoError(t, err)
	defer r.Close()

	h, err := r.RequireByName("big")
	require.NoError(t, err)
	require.Greater(t, h.Info().ChunkCount, int32(1))

	er, err := r.OpenEntry(h)
	require.NoError(t, err)

	got, err := io.ReadAll(er)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestReaderEntryWithAttributesAndMimeType(t *testing.T) {
	var buf bytes.Buffer
	w, err := archive.Create(&buf, archive.WriterConfig{})
	require.NoError(t, err)

	meta := archive.EntryMeta{
		Name:     "doc.json",
		MimeType: "application/json",
		Attributes: []format.Attribute{
			{Key: "author", Value: format.StringValue("ada")},
			{Key: "size-hint", Value: format.Int64Value(1234)},
			{Key: "ratio", Value: format.Float64Value(0.5)},
			{Key: "verified", Value: format.BoolValue(true)},
		},
	}
	es, err := w.AddEntry(meta)
	require.NoError(t, err)
	_, err = es.Write([]byte(`{"ok":true}`))
	require.NoError(t, err)
	require.NoError(t, es.Close())
	require.NoError(t, w.Close())

	r, err := archive.Open(&buf, archive.ReaderConfig{})
	require.NoError(t, err)
	defer r.Close()

	h, err := r.RequireByName("doc.json")
	require.NoError(t, err)
	info := h.Info()
	require.Equal(t, "application/json", info.MimeType)
	require.Len(t, info.Attributes, 4)
	require.Equal(t, "ada", info.Attributes[0].Value.Str)
	require.EqualValues(t, 1234, info.Attributes[1].Value.I64)
	require.InDelta(t, 0.5, info.Attributes[2].Value.F64, 0)
	require.True(t, info.Attributes[3].Value.Bool)
}

func TestReaderClosedReaderFailsDeterministically(t *testing.T) {
	data := buildArchive(t, archive.WriterConfig{}, map[string][]byte{"a": []byte("1")})

	r, err := archive.Open(bytes.NewReader(data), archive.ReaderConfig{})
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, _, err = r.GetByName("a")
	require.ErrorIs(t, err, errs.ErrAlreadyClosed)

	_, err = r.Iterate()
	require.ErrorIs(t, err, errs.ErrAlreadyClosed)

	err = r.Close()
	require.ErrorIs(t, err, errs.ErrAlreadyClosed)
}

func TestReaderEncryptedArchiveWithoutPasswordAllowsMetadataOnly(t *testing.T) {
	var buf bytes.Buffer
	w, err := archive.Create(&buf, archive.WriterConfig{
		Cipher:   format.CipherAES256GCM,
		KDF:      format.KDFArgon2id,
		Password: "sesame",
	})
	require.NoError(t, err)
	writeEntry(t, w, archive.EntryMeta{Name: "locked"}, []byte("contents"))
	require.NoError(t, w.Close())

	r, err := archive.Open(&buf, archive.ReaderConfig{})
	require.NoError(t, err)
	defer r.Close()

	h, err := r.RequireByName("locked")
	require.NoError(t, err)
	require.Equal(t, "locked", h.Info().Name)

	_, err = r.ReadAll(h)
	require.ErrorIs(t, err, errs.ErrDecryptionFailed)
}

func TestReaderRejectsUnsupportedCompatLevel(t *testing.T) {
	data := buildArchive(t, archive.WriterConfig{}, map[string][]byte{"a": []byte("1")})

	// compat_level sits right after the 6-byte magic and one-byte
	// version-minor/patch pair in the file header; corrupt it
	// to a value this implementation cannot read, then recompute
	// header_checksum (over bytes 0x00-0x0F, stored at 0x10) so the
	// compat-level check, not the checksum, rejects the archive.
	corrupted := append([]byte(nil), data...)
	corrupted[8] = 0x7F
	binary.LittleEndian.PutUint32(corrupted[0x10:], crc32.ChecksumIEEE(corrupted[:0x10]))

	_, err := archive.Open(bytes.NewReader(corrupted), archive.ReaderConfig{})
	require.ErrorIs(t, err, errs.ErrUnsupportedVersion)
}

func TestReaderMultiEntryLookupAfterManyWrites(t *testing.T) {
	entries := map[string][]byte{
		"one":   []byte("1111"),
		"two":   []byte("22222222"),
		"three": []byte("333333333333"),
	}
	data := buildArchive(t, archive.WriterConfig{}, entries)

	r, err := archive.Open(bytes.NewReader(data), archive.ReaderConfig{})
	require.NoError(t, err)
	defer r.Close()

	for name, want := range entries {
		h, err := r.RequireByName(name)
		require.NoError(t, err)
		got, err := r.ReadAll(h)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

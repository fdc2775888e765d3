// Package checksum provides the hash algorithms used for chunk payload
// integrity and for the TOC name_hash field.
//
// All structural checksums (file header, entry header, trailer, TOC) always
// use CRC32 regardless of the archive's configured payload checksum
// algorithm; only chunk payloads use the configurable algorithm.
//
// The XXH3-64 and XXH3-128 ids are backed by github.com/cespare/xxhash/v2,
// the same xxHash-family dependency internal/hash.ID already uses for its
// own name-hashing.
package checksum

import (
	"hash/crc32"

	"github.com/cespare/xxhash/v2"

	"github.com/apack/apack/errs"
	"github.com/apack/apack/format"
	"github.com/apack/apack/internal/hash"
)

// CRC32 computes the IEEE CRC32 checksum used for every structural
// checksum field in the format (header_checksum, trailer_checksum,
// toc_checksum, entry header_checksum).
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// NameHash32 computes the 32-bit hash of a UTF-8 entry name used to
// populate the TOC's name_hash field. It folds internal/hash.ID's 64-bit
// xxHash64 digest down to 32 bits by XORing its two halves; the result is
// not an XXH3 hash.
func NameHash32(name string) uint32 {
	h := hash.ID(name)
	return uint32(h) ^ uint32(h>>32)
}

// Sum computes the low 32 bits of the chunk payload checksum using the
// algorithm selected by alg. Only the low 32 bits are ever stored on disk
// in the chunk header, so
// Sum always returns a uint32 regardless of the underlying digest width.
func Sum(alg format.ChecksumAlgorithm, data []byte) (uint32, error) {
	switch alg {
	case format.ChecksumCRC32:
		return CRC32(data), nil
	case format.ChecksumXXH3_64:
		return uint32(xxhash.Sum64(data)), nil
	case format.ChecksumXXH3_128:
		_, lo := sum128(data)
		return uint32(lo), nil
	default:
		return 0, errs.ErrInvalidFormat
	}
}

// sum128 derives a 128-bit digest from two independently-salted xxHash64
// passes over data. cespare/xxhash/v2 has no native 128-bit or seeded
// variant; hashing the data twice with a distinguishing suffix is a common
// way to widen a 64-bit hash and is sufficient for a payload checksum
// (never a security boundary; that is the AEAD layer's job).
func sum128(data []byte) (hi, lo uint64) {
	d := xxhash.New()
	d.Write(data) //nolint:errcheck
	lo = d.Sum64()

	d2 := xxhash.New()
	d2.Write(data)          //nolint:errcheck
	d2.Write([]byte{0x01}) //nolint:errcheck
	hi = d2.Sum64()

	return hi, lo
}

// Sum128 exposes the full 128-bit digest for callers that want both
// halves; the chunk header itself only ever stores the low 32 bits.
func Sum128(data []byte) (hi, lo uint64) {
	return sum128(data)
}

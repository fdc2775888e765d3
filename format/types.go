// Package format defines the small numeric identifiers shared across the
// APACK wire format: checksum, compression, cipher and KDF algorithm ids.
//
// The on-disk byte is always the numeric id below, never the string name,
// so archives stay portable across implementations that agree on this
// table.
package format

type (
	// ChecksumAlgorithm identifies the hash used for chunk payload checksums.
	// Header, TOC and trailer integrity checks always use CRC32 regardless
	// of this setting.
	ChecksumAlgorithm uint8

	// CompressionAlgorithm identifies the per-chunk compression codec.
	CompressionAlgorithm uint8

	// CipherAlgorithm identifies the AEAD cipher used to encrypt chunk
	// payloads and wrap the archive's data-encryption key.
	CipherAlgorithm uint8

	// KDFAlgorithm identifies the password-based key derivation function
	// used to derive a key-encryption key from a user password.
	KDFAlgorithm uint8
)

const (
	ChecksumCRC32    ChecksumAlgorithm = 0
	ChecksumXXH3_64  ChecksumAlgorithm = 1 //nolint:stylecheck
	ChecksumXXH3_128 ChecksumAlgorithm = 2 //nolint:stylecheck

	CompressionNone CompressionAlgorithm = 0
	CompressionZstd CompressionAlgorithm = 1
	CompressionLZ4  CompressionAlgorithm = 2
	CompressionS2   CompressionAlgorithm = 3

	// CipherNone marks an entry as unencrypted. It is the zero value so an
	// EntryHeader built without explicitly setting EncryptionID defaults to
	// no encryption rather than to an arbitrary cipher.
	CipherNone             CipherAlgorithm = 0
	CipherAES256GCM        CipherAlgorithm = 1
	CipherChaCha20Poly1305 CipherAlgorithm = 2

	KDFArgon2id         KDFAlgorithm = 0
	KDFPBKDF2HMACSHA256 KDFAlgorithm = 1
)

func (c ChecksumAlgorithm) String() string {
	switch c {
	case ChecksumCRC32:
		return "CRC32"
	case ChecksumXXH3_64:
		return "XXH3-64"
	case ChecksumXXH3_128:
		return "XXH3-128"
	default:
		return "Unknown"
	}
}

func (c CompressionAlgorithm) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionLZ4:
		return "LZ4"
	case CompressionS2:
		return "S2"
	default:
		return "Unknown"
	}
}

func (c CipherAlgorithm) String() string {
	switch c {
	case CipherNone:
		return "None"
	case CipherAES256GCM:
		return "AES-256-GCM"
	case CipherChaCha20Poly1305:
		return "ChaCha20-Poly1305"
	default:
		return "Unknown"
	}
}

func (k KDFAlgorithm) String() string {
	switch k {
	case KDFArgon2id:
		return "Argon2id"
	case KDFPBKDF2HMACSHA256:
		return "PBKDF2-HMAC-SHA256"
	default:
		return "Unknown"
	}
}

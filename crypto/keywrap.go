package crypto

import (
	"crypto/aes"
	"encoding/binary"

	"github.com/apack/apack/errs"
)

// rfc3394IV is the fixed 64-bit default integrity check register RFC 3394
// §2.2.3.1 specifies (0xA6A6A6A6A6A6A6A6).
var rfc3394IV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// WrapKey wraps a DEK (key, a multiple of 8 bytes, at least 16) under kek
// using AES Key Wrap (RFC 3394). RFC 3394 produces len(key)+8 bytes: the
// wrapped key plus a leading integrity-check value. APACK reports
// the wrap's authentication as a separate 16-byte WrapTag field in the
// EncryptionBlock; this implementation splits RFC 3394's 8-byte
// ICV into the low 8 bytes of that 16-byte tag and zero-fills the rest, so
// the wire format's fixed 16-byte tag field accommodates both this AES Key
// Wrap step and, in principle, a future AEAD-based wrap with a full 128-bit
// tag.
func WrapKey(kek, key []byte) (wrapped []byte, tag [16]byte, err error) {
	if len(key)%8 != 0 || len(key) < 16 {
		return nil, tag, errs.ErrValueTooLarge
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, tag, err
	}

	n := len(key) / 8
	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], key[i*8:(i+1)*8])
	}

	a := rfc3394IV

	buf := make([]byte, 16)
	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[:8], a[:])
			copy(buf[8:], r[i-1][:])
			block.Encrypt(buf, buf)

			t := uint64(n*j + i)
			msb := binary.BigEndian.Uint64(buf[:8])
			binary.BigEndian.PutUint64(buf[:8], msb^t)

			copy(a[:], buf[:8])
			copy(r[i-1][:], buf[8:])
		}
	}

	out := make([]byte, 8+len(key))
	copy(out[:8], a[:])
	for i := 0; i < n; i++ {
		copy(out[8+i*8:], r[i][:])
	}

	copy(tag[:8], a[:])

	return out[8:], tag, nil
}

// UnwrapKey reverses WrapKey, reconstructing the key and verifying the
// integrity check value against tag. Any mismatch (wrong kek, wrong tag,
// corrupted wrapped bytes) is reported as errs.ErrDecryptionFailed with no
// distinction between the failure causes, so the error cannot serve as a
// wrong-password oracle.
func UnwrapKey(kek, wrapped []byte, tag [16]byte) ([]byte, error) {
	if len(wrapped)%8 != 0 || len(wrapped) < 8 {
		return nil, errs.ErrDecryptionFailed
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, errs.ErrDecryptionFailed
	}

	n := len(wrapped) / 8
	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], wrapped[i*8:(i+1)*8])
	}

	var a [8]byte
	copy(a[:], tag[:8])

	buf := make([]byte, 16)
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			msb := binary.BigEndian.Uint64(a[:])
			binary.BigEndian.PutUint64(a[:], msb^t)

			copy(buf[:8], a[:])
			copy(buf[8:], r[i-1][:])
			block.Decrypt(buf, buf)

			copy(a[:], buf[:8])
			copy(r[i-1][:], buf[8:])
		}
	}

	if a != rfc3394IV {
		return nil, errs.ErrDecryptionFailed
	}

	out := make([]byte, len(wrapped))
	for i := 0; i < n; i++ {
		copy(out[i*8:], r[i][:])
	}

	return out, nil
}

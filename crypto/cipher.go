package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/apack/apack/errs"
	"github.com/apack/apack/format"
)

// NonceSize is the fixed 96-bit nonce length used for every chunk AEAD
// operation, shared by both supported ciphers.
const NonceSize = 12

// DEKSize is the fixed 256-bit data-encryption-key length.
const DEKSize = 32

// AEAD seals and opens chunk payloads under a DEK. Implementations are
// AES-256-GCM and ChaCha20-Poly1305, both with a 96-bit nonce and a
// 128-bit tag.
type AEAD interface {
	// Seal encrypts plaintext and returns nonce||ciphertext||tag.
	Seal(dek []byte, plaintext []byte) ([]byte, error)
	// Open splits sealed into nonce||ciphertext||tag, decrypts and
	// authenticates it, and returns the plaintext. Returns
	// errs.ErrDecryptionFailed on any tag mismatch.
	Open(dek []byte, sealed []byte) ([]byte, error)
}

// NewAEAD returns the AEAD implementation for the given cipher algorithm
// id, dispatching through CipherRegistry.
func NewAEAD(alg format.CipherAlgorithm) (AEAD, error) {
	return CipherRegistry.RequireByNumericID(uint8(alg))
}

// buildAEAD constructs the built-in AEAD for alg directly, bypassing
// CipherRegistry. Used only by the package init that populates the registry
// itself.
func buildAEAD(alg format.CipherAlgorithm) (AEAD, error) {
	switch alg {
	case format.CipherAES256GCM:
		return aesGCM{}, nil
	case format.CipherChaCha20Poly1305:
		return chacha{}, nil
	default:
		return nil, errs.ErrInvalidFormat
	}
}

type aesGCM struct{}

func (aesGCM) aead(dek []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(dek)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCMWithNonceSize(block, NonceSize)
}

func (c aesGCM) Seal(dek []byte, plaintext []byte) ([]byte, error) {
	return sealWith(c, dek, plaintext)
}

func (c aesGCM) Open(dek []byte, sealed []byte) ([]byte, error) {
	return openWith(c, dek, sealed)
}

type chacha struct{}

func (chacha) aead(dek []byte) (cipher.AEAD, error) {
	return chacha20poly1305.New(dek)
}

func (c chacha) Seal(dek []byte, plaintext []byte) ([]byte, error) {
	return sealWith(c, dek, plaintext)
}

func (c chacha) Open(dek []byte, sealed []byte) ([]byte, error) {
	return openWith(c, dek, sealed)
}

type aeadFactory interface {
	aead(dek []byte) (cipher.AEAD, error)
}

func sealWith(f aeadFactory, dek []byte, plaintext []byte) ([]byte, error) {
	a, err := f.aead(dek)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, NonceSize+len(plaintext)+a.Overhead())
	out = append(out, nonce...)
	out = a.Seal(out, nonce, plaintext, nil)

	return out, nil
}

func openWith(f aeadFactory, dek []byte, sealed []byte) ([]byte, error) {
	if len(sealed) < NonceSize {
		return nil, errs.ErrDecryptionFailed
	}

	a, err := f.aead(dek)
	if err != nil {
		return nil, err
	}

	nonce := sealed[:NonceSize]
	ct := sealed[NonceSize:]

	plaintext, err := a.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, errs.ErrDecryptionFailed
	}

	return plaintext, nil
}

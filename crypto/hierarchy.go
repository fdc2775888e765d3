package crypto

import (
	"crypto/rand"

	"github.com/apack/apack/errs"
	"github.com/apack/apack/format"
)

// DefaultSaltSize is the salt length new archives get. Reading accepts
// whatever salt length the encryption block records.
const DefaultSaltSize = 32

// NewDEK generates a random 256-bit data-encryption key.
func NewDEK() (*Material, error) {
	b := make([]byte, DEKSize)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}

	return NewMaterial(b), nil
}

// WrapForPassword runs the write-path key hierarchy end to end:
// derive a KEK from password via the given KDF, wrap dek under it with AES
// Key Wrap, and return the EncryptionBlock to persist. The caller-supplied
// dek is not modified or wiped; wiping the session DEK remains the caller's
// responsibility once the archive session ends.
func WrapForPassword(kdfAlg format.KDFAlgorithm, cipherAlg format.CipherAlgorithm, password string, dek *Material) (format.EncryptionBlock, error) {
	params, err := DefaultParams(kdfAlg)
	if err != nil {
		return format.EncryptionBlock{}, err
	}

	salt := make([]byte, DefaultSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return format.EncryptionBlock{}, err
	}

	kek, err := DeriveKEK(kdfAlg, password, salt, params)
	if err != nil {
		return format.EncryptionBlock{}, err
	}
	defer kek.Wipe()

	wrapped, tag, err := WrapKey(kek.Bytes(), dek.Bytes())
	if err != nil {
		return format.EncryptionBlock{}, err
	}

	return format.EncryptionBlock{
		KDFAlg:         kdfAlg,
		CipherAlg:      cipherAlg,
		KDFIterations:  params.Iterations,
		KDFMemoryKiB:   params.MemoryKiB,
		KDFParallelism: params.Parallelism,
		Salt:           salt,
		WrappedKey:     wrapped,
		WrapTag:        tag,
	}, nil
}

// UnwrapForPassword runs the read-path key hierarchy: reconstruct
// the KDF from the stored EncryptionBlock parameters, derive the KEK from
// password and the stored salt, and unwrap the DEK. Any failure (wrong
// password, tampered block) surfaces as errs.ErrDecryptionFailed.
func UnwrapForPassword(block format.EncryptionBlock, password string) (*Material, error) {
	if len(block.WrappedKey) == 0 {
		return nil, errs.ErrDecryptionFailed
	}

	params := KDFParams{
		Iterations:  block.KDFIterations,
		MemoryKiB:   block.KDFMemoryKiB,
		Parallelism: block.KDFParallelism,
	}

	kek, err := DeriveKEK(block.KDFAlg, password, block.Salt, params)
	if err != nil {
		return nil, errs.ErrDecryptionFailed
	}
	defer kek.Wipe()

	dek, err := UnwrapKey(kek.Bytes(), block.WrappedKey, block.WrapTag)
	if err != nil {
		return nil, errs.ErrDecryptionFailed
	}

	return NewMaterial(dek), nil
}

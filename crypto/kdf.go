package crypto

import (
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"

	"crypto/sha256"

	"github.com/apack/apack/errs"
	"github.com/apack/apack/format"
)

// KEKSize is the fixed 256-bit key-encryption-key length every KDF in this
// package derives, matching the DEK width it ultimately wraps.
const KEKSize = 32

// KDFParams carries the cost parameters stored in the EncryptionBlock.
// PBKDF2 ignores MemoryKiB and Parallelism.
type KDFParams struct {
	Iterations  int32
	MemoryKiB   int32
	Parallelism int32
}

// DefaultArgon2Params are OWASP-recommended Argon2id cost parameters for
// interactive use: 2 iterations (time cost), 19 MiB memory, degree-1
// parallelism.
var DefaultArgon2Params = KDFParams{Iterations: 2, MemoryKiB: 19 * 1024, Parallelism: 1}

// DefaultPBKDF2Params matches OWASP's current PBKDF2-HMAC-SHA256 iteration
// recommendation. MemoryKiB and Parallelism are unused by PBKDF2 and stored
// as zero.
var DefaultPBKDF2Params = KDFParams{Iterations: 600_000}

// DeriveKEK derives a KEKSize-byte key-encryption key from password and
// salt using the KDF identified by alg and params, dispatching through
// KDFRegistry. The returned Material must be wiped by the
// caller.
func DeriveKEK(alg format.KDFAlgorithm, password string, salt []byte, params KDFParams) (*Material, error) {
	provider, err := KDFRegistry.RequireByNumericID(uint8(alg))
	if err != nil {
		return nil, err
	}

	return provider(password, salt, params)
}

// deriveKEKDirect implements each built-in KDF directly, bypassing
// KDFRegistry. Used only by the package init that populates the registry
// itself.
func deriveKEKDirect(alg format.KDFAlgorithm, password string, salt []byte, params KDFParams) (*Material, error) {
	switch alg {
	case format.KDFArgon2id:
		key := argon2.IDKey([]byte(password), salt, uint32(params.Iterations), uint32(params.MemoryKiB), uint8(params.Parallelism), KEKSize)

		return NewMaterial(key), nil
	case format.KDFPBKDF2HMACSHA256:
		key := pbkdf2.Key([]byte(password), salt, int(params.Iterations), KEKSize, sha256.New)

		return NewMaterial(key), nil
	default:
		return nil, errs.ErrInvalidFormat
	}
}

// DefaultParams returns the default cost parameters for alg.
func DefaultParams(alg format.KDFAlgorithm) (KDFParams, error) {
	switch alg {
	case format.KDFArgon2id:
		return DefaultArgon2Params, nil
	case format.KDFPBKDF2HMACSHA256:
		return DefaultPBKDF2Params, nil
	default:
		return KDFParams{}, errs.ErrInvalidFormat
	}
}

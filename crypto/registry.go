package crypto

import (
	"github.com/apack/apack/format"
	"github.com/apack/apack/registry"
)

// KDFProvider derives a KEKSize-byte key-encryption key from a password,
// salt, and cost parameters.
type KDFProvider func(password string, salt []byte, params KDFParams) (*Material, error)

// CipherRegistry and KDFRegistry are the process-wide algorithm registries
// for the cipher and KDF algorithm modules. Built-ins are
// registered once at package init and looked up by either numeric id or a
// case-insensitive name.
var (
	CipherRegistry = registry.New[AEAD]()
	KDFRegistry    = registry.New[KDFProvider]()
)

func init() {
	aesProvider, _ := buildAEAD(format.CipherAES256GCM)
	chachaProvider, _ := buildAEAD(format.CipherChaCha20Poly1305)
	CipherRegistry.Register(uint8(format.CipherAES256GCM), "aes-256-gcm", aesProvider)
	CipherRegistry.Register(uint8(format.CipherChaCha20Poly1305), "chacha20-poly1305", chachaProvider)

	argon2Provider := func(password string, salt []byte, params KDFParams) (*Material, error) {
		return deriveKEKDirect(format.KDFArgon2id, password, salt, params)
	}
	pbkdf2Provider := func(password string, salt []byte, params KDFParams) (*Material, error) {
		return deriveKEKDirect(format.KDFPBKDF2HMACSHA256, password, salt, params)
	}
	KDFRegistry.Register(uint8(format.KDFArgon2id), "argon2id", argon2Provider)
	KDFRegistry.Register(uint8(format.KDFPBKDF2HMACSHA256), "pbkdf2-hmac-sha256", pbkdf2Provider)
}

// Package crypto implements the key hierarchy: password-based KDF
// lookup, AES Key Wrap (RFC 3394) of a random data-encryption key, and the
// AEAD ciphers that encrypt chunk payloads.
//
// The hierarchy is password → KDF → KEK → wrap/unwrap → DEK. A DEK never
// touches disk; only its AES-Key-Wrap ciphertext (EncryptionBlock.WrappedKey
// plus WrapTag) does. Every key buffer in this package is a Material, whose
// bytes are overwritten with zeros on every exit path, including error
// paths.
package crypto

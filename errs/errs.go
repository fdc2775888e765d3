// Package errs defines the sentinel errors returned across the APACK
// packages. Callers should compare against these with errors.Is; wrapped
// forms (fmt.Errorf("...: %w", errs.ErrX)) are used throughout so extra
// context survives without losing the sentinel identity.
package errs

import "errors"

// Archive-level failures. Any of these aborts the whole session.
var (
	// ErrInvalidFormat is returned when a magic number, structural field,
	// or otherwise mandatory byte pattern does not match what APACK expects.
	ErrInvalidFormat = errors.New("apack: invalid format")

	// ErrUnsupportedVersion is returned when an archive's compat_level
	// exceeds the reader's maximum supported compat level.
	ErrUnsupportedVersion = errors.New("apack: unsupported version")

	// ErrUnexpectedEOF is returned when a structural read runs out of bytes.
	ErrUnexpectedEOF = errors.New("apack: unexpected end of data")
)

// Entry-level failures. The archive session stays usable for other entries.
var (
	// ErrIntegrityFailure is returned when a stored checksum does not match
	// the checksum of the bytes actually read (header CRC32, TOC CRC32, or
	// chunk payload checksum).
	ErrIntegrityFailure = errors.New("apack: integrity check failed")

	// ErrDecryptionFailed is returned both when a DEK unwrap fails (wrong
	// password) and when a chunk's AEAD tag fails to verify (tampered
	// ciphertext). The message is identical in both cases so callers cannot
	// tell a wrong password from tampered data.
	ErrDecryptionFailed = errors.New("apack: decryption failed")

	// ErrCompressionFailed is returned when a configured compressor or
	// decompressor reports an error.
	ErrCompressionFailed = errors.New("apack: compression failed")

	// ErrUncorrectableErrors is returned by the Reed-Solomon decoder when
	// the number of erroneous symbols in a codeword exceeds floor(parity/2).
	ErrUncorrectableErrors = errors.New("apack: uncorrectable errors")
)

// Lookup failures. These never poison or abort a session.
var (
	// ErrEntryNotFound is returned by RequireByName/RequireByID when no
	// matching entry exists. Non-requiring lookups return a zero value and
	// no error instead.
	ErrEntryNotFound = errors.New("apack: entry not found")

	// ErrNotFound is returned by the algorithm registry's RequireByID /
	// RequireByNumericID when no provider is registered under
	// the requested identifier.
	ErrNotFound = errors.New("apack: no provider registered for identifier")
)

// Limit and lifecycle failures.
var (
	// ErrValueTooLarge is returned when a value exceeds a wire-format limit
	// (mime length, attribute count, chunk size, parity bytes, interleave
	// factor, or a length-prefixed string over 65535 bytes). An empty or
	// over-long entry name is reported as ErrInvalidFormat instead.
	ErrValueTooLarge = errors.New("apack: value exceeds format limit")

	// ErrPoisoned is returned by any Writer operation (other than Close)
	// performed after a prior operation failed with an I/O error.
	ErrPoisoned = errors.New("apack: writer is poisoned")

	// ErrAlreadyClosed is returned when an operation is attempted on a
	// Writer or Reader after Close has already completed.
	ErrAlreadyClosed = errors.New("apack: archive already closed")
)

// Format/section-level failures, named individually (rather than folded
// into ErrInvalidFormat) because callers benefit from telling them apart
// during development and testing.
var (
	// ErrInvalidHeaderSize is returned when a structural offset or length
	// recorded in a header (e.g. trailer_offset) is inconsistent with the
	// actual size of the archive being read.
	ErrInvalidHeaderSize = errors.New("apack: invalid header size")

	// ErrInvalidHeaderFlags is returned when a header's flag bits combine in
	// a way the format forbids, such as a file header setting both
	// ModeStream and ModeRandomAccess.
	ErrInvalidHeaderFlags = errors.New("apack: invalid header flags")
)

// Reed-Solomon codec failures.
var (
	ErrInvalidCodewordLength = errors.New("apack: codeword length exceeds 255 bytes")
	ErrShortCodeword         = errors.New("apack: codeword shorter than parity length")
	ErrArithmeticError       = errors.New("apack: division by zero in GF(2^8)")
)

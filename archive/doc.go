// Package archive implements the writer and reader state machines:
// the top-level API that sequences a FileHeader, an optional
// EncryptionBlock, a run of EntryRecords, and a trailer into a complete
// APACK archive, and inverts that sequence to read one back.
//
// Writer and Reader share the entry model (format), chunk pipeline (chunk),
// algorithm registries (compress, crypto) and key hierarchy (crypto)
// described elsewhere in this module; Writer and Reader do not depend on
// each other.
//
// Both types build or consume the entire archive as one in-memory buffer
// (via codec.Writer/codec.Reader) rather than streaming through a seekable
// file handle. This lets Writer patch the file header's trailer_offset and
// an entry header's sizes by overwriting already-written bytes in the
// buffer instead of seeking the underlying sink, so sinks and sources only
// need to satisfy io.Writer / io.Reader, never io.Seeker.
package archive

// Package chunk implements the chunk processor: the per-chunk pipeline
// that turns one plaintext block into the bytes a ChunkHeader and its
// payload actually store on disk, and inverts that pipeline on read.
//
// The write-path order is fixed: checksum the plaintext, compress, encrypt,
// then (only when the entry has ECC enabled) protect the final on-disk
// bytes with Reed-Solomon parity. Reading undoes the stages in reverse.
// Every stage after checksum is optional; a Processor configured with a nil
// Compressor, nil Cipher and nil ECC degenerates to a checksum-only
// passthrough.
package chunk

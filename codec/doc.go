// Package codec implements the little-endian binary primitives shared by
// every APACK section: fixed-width integer read/write, length-prefixed
// UTF-8 strings, magic-number validation, and alignment padding.
//
// Writer and Reader both track a running byte counter (Offset) so callers
// can compute absolute file offsets (for TOC entries, trailer patching) and
// so Writer.Pad / Reader.SkipPadding can align to a boundary without the
// caller tracking position by hand. Centralizing this here means every
// section kind (file header, entry header, chunk header, trailer, TOC)
// shares one padding/offset implementation instead of each computing it
// ad hoc.
package codec

package archive

import (
	"github.com/apack/apack/errs"
	"github.com/apack/apack/format"
)

// EntryMeta describes a logical entry the caller is about to add to a
// Writer. ID zero means "auto-assign", sequentially
// starting at 1.
type EntryMeta struct {
	ID         uint64
	Name       string
	MimeType   string
	Attributes []format.Attribute

	// ECC opts this entry into Reed-Solomon protection of its chunk
	// payloads. ECCParityBytes and ECCInterleave are ignored when ECC is
	// false; when true, parity must be even in [2,254] and interleave in
	// [1,16].
	ECC            bool
	ECCParityBytes uint8
	ECCInterleave  uint8
}

func (m EntryMeta) validate() error {
	if len(m.Name) == 0 || len(m.Name) > 65535 {
		return errs.ErrInvalidFormat
	}
	if len(m.MimeType) > 255 {
		return errs.ErrValueTooLarge
	}
	if len(m.Attributes) > 65535 {
		return errs.ErrValueTooLarge
	}
	for _, a := range m.Attributes {
		if len(a.Key) == 0 || len(a.Key) > 65535 {
			return errs.ErrInvalidFormat
		}
	}
	if m.ECC {
		if m.ECCParityBytes < 2 || m.ECCParityBytes > 254 || m.ECCParityBytes%2 != 0 {
			return errs.ErrValueTooLarge
		}
		if m.ECCInterleave < 1 || m.ECCInterleave > 16 {
			return errs.ErrValueTooLarge
		}
	}

	return nil
}

// EntryInfo is the read-only summary of an entry exposed by Reader
// iteration and lookups: the full entry header plus the id assigned on
// write.
type EntryInfo struct {
	ID            uint64
	Name          string
	MimeType      string
	Attributes    []format.Attribute
	CompressionID format.CompressionAlgorithm
	EncryptionID  format.CipherAlgorithm
	HasECC        bool
	OriginalSize  int64
	StoredSize    int64
	ChunkCount    int32
}

func entryInfoFromHeader(h format.EntryHeader) EntryInfo {
	return EntryInfo{
		ID:            uint64(h.EntryID),
		Name:          h.Name,
		MimeType:      h.MimeType,
		Attributes:    h.Attributes,
		CompressionID: h.CompressionID,
		EncryptionID:  h.EncryptionID,
		HasECC:        h.Flags.Has(format.EntryFlagECC),
		OriginalSize:  h.OriginalSize,
		StoredSize:    h.StoredSize,
		ChunkCount:    h.ChunkCount,
	}
}

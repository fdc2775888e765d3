package format

import (
	"github.com/apack/apack/codec"
	"github.com/apack/apack/errs"
)

// WrapTagSize is the fixed 16-byte AES Key Wrap authentication tag length
// (RFC 3394 appends an 8-byte integrity check value to the wrapped key;
// APACK's wrap implementation reports it as a 16-byte tag; see the crypto
// package for the wrap construction).
const WrapTagSize = 16

// encryptionBlockFixedSize is the byte count of the EncryptionBlock fields
// preceding the variable-length salt/wrapped-key/tag tail (offsets
// 0x00-0x17).
const encryptionBlockFixedSize = 24

// EncryptionBlock is the variable-length record immediately following the
// file header when ModeEncrypted is set.
type EncryptionBlock struct {
	KDFAlg         KDFAlgorithm
	CipherAlg      CipherAlgorithm
	KDFIterations  int32
	KDFMemoryKiB   int32
	KDFParallelism int32
	Salt           []byte
	WrappedKey     []byte
	WrapTag        [WrapTagSize]byte
}

// WriteTo appends the encoded encryption block to w.
func (b *EncryptionBlock) WriteTo(w *codec.Writer) error {
	if len(b.Salt) > 0xFFFF || len(b.WrappedKey) > 0xFFFF {
		return errs.ErrValueTooLarge
	}

	w.WriteMagic4([4]byte{'E', 'N', 'C', 'R'})
	w.WriteUint8(uint8(b.KDFAlg))
	w.WriteUint8(uint8(b.CipherAlg))
	w.WriteUint16(0) // reserved
	w.WriteInt32(b.KDFIterations)
	w.WriteInt32(b.KDFMemoryKiB)
	w.WriteInt32(b.KDFParallelism)
	w.WriteUint16(uint16(len(b.Salt)))
	w.WriteUint16(uint16(len(b.WrappedKey)))
	w.WriteBytes(b.Salt)
	w.WriteBytes(b.WrappedKey)
	w.WriteBytes(b.WrapTag[:])

	return nil
}

// Size returns the total encoded size of b in bytes.
func (b *EncryptionBlock) Size() int {
	return encryptionBlockFixedSize + len(b.Salt) + len(b.WrappedKey) + WrapTagSize
}

var encrMagic = [4]byte{'E', 'N', 'C', 'R'}

// ReadEncryptionBlock parses an EncryptionBlock from r, which must start at
// the block's magic.
func ReadEncryptionBlock(r *codec.Reader) (EncryptionBlock, error) {
	var b EncryptionBlock

	if err := r.ReadMagic4(encrMagic); err != nil {
		return b, err
	}

	kdfAlg, err := r.ReadUint8()
	if err != nil {
		return b, err
	}
	cipherAlg, err := r.ReadUint8()
	if err != nil {
		return b, err
	}
	if _, err := r.ReadUint16(); err != nil { // reserved
		return b, err
	}
	iterations, err := r.ReadInt32()
	if err != nil {
		return b, err
	}
	memoryKiB, err := r.ReadInt32()
	if err != nil {
		return b, err
	}
	parallelism, err := r.ReadInt32()
	if err != nil {
		return b, err
	}
	saltLen, err := r.ReadUint16()
	if err != nil {
		return b, err
	}
	wrappedKeyLen, err := r.ReadUint16()
	if err != nil {
		return b, err
	}
	salt, err := r.ReadBytes(int(saltLen))
	if err != nil {
		return b, err
	}
	wrappedKey, err := r.ReadBytes(int(wrappedKeyLen))
	if err != nil {
		return b, err
	}
	tag, err := r.ReadBytes(WrapTagSize)
	if err != nil {
		return b, err
	}

	b = EncryptionBlock{
		KDFAlg:         KDFAlgorithm(kdfAlg),
		CipherAlg:      CipherAlgorithm(cipherAlg),
		KDFIterations:  iterations,
		KDFMemoryKiB:   memoryKiB,
		KDFParallelism: parallelism,
		Salt:           salt,
		WrappedKey:     wrappedKey,
	}
	copy(b.WrapTag[:], tag)

	return b, nil
}

package crypto

// Material is a byte buffer holding key material (a DEK or a KEK). Callers
// must call Wipe exactly once, typically via defer, on every exit path:
// success, error, or panic. A Material is not safe for concurrent use and
// must never be cloned: the DEK is exclusively owned by its session.
type Material struct {
	b []byte
}

// NewMaterial takes ownership of b and wraps it as key Material. b must not
// be referenced by the caller afterwards.
func NewMaterial(b []byte) *Material {
	return &Material{b: b}
}

// Bytes returns the underlying key bytes. The returned slice is only valid
// until Wipe is called.
func (m *Material) Bytes() []byte {
	if m == nil {
		return nil
	}

	return m.b
}

// Len returns the key length in bytes.
func (m *Material) Len() int {
	if m == nil {
		return 0
	}

	return len(m.b)
}

// Wipe overwrites every byte of the key with zero. Safe to call multiple
// times and on a nil Material.
func (m *Material) Wipe() {
	if m == nil {
		return
	}
	for i := range m.b {
		m.b[i] = 0
	}
}

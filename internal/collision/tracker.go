// Package collision tracks TOC name_hash collisions as entries are added
// to a Writer. Name-hash collisions are legal in the format (readers
// disambiguate by loading the entry header and comparing the full name
// string), so a collision here is a diagnostic, not a write-time error.
package collision

// Tracker maps name_hash values to the first entry name seen for that hash,
// so a Writer can report how many distinct names ended up sharing a hash.
type Tracker struct {
	seen      map[uint32]string
	collision int
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[uint32]string)}
}

// Track records the name_hash/name pair for an entry just added to the
// TOC. It is infallible: a collision must never abort a write.
func (t *Tracker) Track(nameHash uint32, name string) {
	if existing, ok := t.seen[nameHash]; ok {
		if existing != name {
			t.collision++
		}

		return
	}

	t.seen[nameHash] = name
}

// HasCollision reports whether any two distinct names have hashed to the
// same name_hash so far.
func (t *Tracker) HasCollision() bool { return t.collision > 0 }

// Count returns the number of distinct-name collisions observed.
func (t *Tracker) Count() int { return t.collision }

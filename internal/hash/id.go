// Package hash provides the xxHash64 primitive checksum.NameHash32 folds
// down to 32 bits for the TOC's name_hash field.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 digest of data.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

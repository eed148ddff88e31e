package store

import (
	"github.com/zeebo/xxh3"
	"sync"
	"unsafe"
)

// Key is a 64 bit xxh3 hash of an object key (used for shard selection)
// plus the 128 bit hash halves that make collisions practically impossible.
type Key struct {
	v  uint64
	hi uint64
	lo uint64
}

var hasherPool = sync.Pool{New: func() any { return xxh3.New() }}

func NewKey(objectKey string) Key {
	// acquire reusable hasher
	hasher := hasherPool.Get().(*xxh3.Hasher)
	hasher.Reset()

	_, _ = hasher.Write(unsafe.Slice(unsafe.StringData(objectKey), len(objectKey)))
	u128 := hasher.Sum128()

	k := Key{
		v:  hasher.Sum64(),
		hi: u128.Hi,
		lo: u128.Lo,
	}

	// release hasher after use
	hasherPool.Put(hasher)

	return k
}

func (k Key) Value() uint64 {
	return k.v
}

func (k Key) IsTheSame(another Key) bool {
	return k == another
}

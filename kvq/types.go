// Package kvq defines the ordered binary store (OBS) contract: the
// persistent or in-memory mapping from byte-string keys to byte-string
// values that the rest of this module is built on.
//
// The store's ordering is lexicographic over raw key bytes. Values are
// opaque. Two capability interfaces are exposed ([Reader] and [Writer])
// rather than a deep trait hierarchy: an overlay ([kvq/cache]) wraps a
// shared [Reader] and holds its own private buffer.
package kvq

// Pair is an ordered (key, value) tuple returned by range scans.
type Pair struct {
	Key   []byte
	Value []byte
}

// Iterator walks keys in ascending lexicographic order starting at a
// backend-chosen prefix seek position. Backends MUST implement
// PrefixIterator using a native prefix-seek primitive, not a full scan.
type Iterator interface {
	// Next advances the iterator and reports whether a key/value pair is
	// available. Once Next returns false, Key/Value are no longer valid.
	Next() bool

	// Key returns the current key. Valid only after a true Next.
	Key() []byte

	// Value returns the current value. Valid only after a true Next.
	Value() []byte

	// Err returns any error encountered during iteration.
	Err() error

	// Close releases iterator resources. Safe to call multiple times.
	Close() error
}

// Reader is the read side of the OBS contract.
type Reader interface {
	// GetExact returns the value stored at key, or an error wrapping
	// [ErrNotFound] if no such key exists.
	GetExact(key []byte) ([]byte, error)

	// GetExactIfExists returns the value at key and true, or (nil, false,
	// nil) if the key is absent.
	GetExactIfExists(key []byte) ([]byte, bool, error)

	// PrefixIterator returns an ascending iterator over all keys with the
	// given prefix. The caller must Close the iterator.
	PrefixIterator(prefix []byte) (Iterator, error)
}

// Writer is the write side of the OBS contract. Implementations may be
// safe for concurrent use by serializing batches internally; callers
// should not assume exclusivity unless documented by the concrete
// backend.
type Writer interface {
	// Set writes key→value, overwriting any existing value.
	Set(key, value []byte) error

	// SetMany writes all pairs as a single durable batch.
	SetMany(pairs []Pair) error

	// Delete removes key, reporting whether it previously existed.
	Delete(key []byte) (existed bool, err error)

	// DeleteMany removes all keys as a single batch, reporting existence
	// per key in the same order.
	DeleteMany(keys [][]byte) (existed []bool, err error)
}

// Store is the full OBS contract: a backend implements both read and
// write sides. Both [kvq/memstore] and [kvq/sqlitestore] satisfy this.
type Store interface {
	Reader
	Writer
}

// Package cache implements the Cached Overlay (CO): a write-buffer of
// pending Set/Delete operations layered in front of a shared, read-only
// view of the base store. Workers write through a Cache; the Fork Engine
// then takes the pending writes/deletes ([Cache.FlushChanges]) so the
// Block Journal can classify them before they are applied.
// [Cache.FlushSimple] instead applies the buffer to the base store
// directly, with no journal.
//
// Cache implements [kvq.Reader] by merging the buffer with the base
// store's own PrefixIterator rather than reimplementing get_leq/
// get_leq_kv by hand; the fuzzy-window helpers in kvq/fuzzy.go then give
// correct predecessor/range behavior for free, with no duplicated
// window-scanning logic.
package cache

import (
	"bytes"
	"sort"
	"sync"

	"github.com/txidx/txidx/kvq"
)

type bufEntry struct {
	key     []byte
	value   []byte
	removed bool
}

// Cache is the Cached Overlay: a buffered [kvq.Reader]+[kvq.Writer] in
// front of a shared base [kvq.Store]. The zero value is not usable;
// construct with [New].
type Cache struct {
	mu      sync.Mutex
	base    kvq.Store
	entries []bufEntry // sorted ascending by key
}

// New returns a Cache buffering writes over base. base is read through
// directly for keys not present in the buffer, and is only written to by
// [Cache.FlushSimple].
func New(base kvq.Store) *Cache {
	return &Cache{base: base}
}

func (c *Cache) search(key []byte) (idx int, found bool) {
	idx = sort.Search(len(c.entries), func(i int) bool {
		return bytes.Compare(c.entries[i].key, key) >= 0
	})

	found = idx < len(c.entries) && bytes.Equal(c.entries[idx].key, key)

	return idx, found
}

// GetExact implements [kvq.Reader].
func (c *Cache) GetExact(key []byte) ([]byte, error) {
	v, ok, err := c.GetExactIfExists(key)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, kvq.NotFound(key)
	}

	return v, nil
}

// GetExactIfExists implements [kvq.Reader]. A buffered key (set or
// removed) always shadows the base store.
func (c *Cache) GetExactIfExists(key []byte) ([]byte, bool, error) {
	c.mu.Lock()

	idx, found := c.search(key)
	if found {
		e := c.entries[idx]

		c.mu.Unlock()

		if e.removed {
			return nil, false, nil
		}

		return append([]byte(nil), e.value...), true, nil
	}

	c.mu.Unlock()

	return c.base.GetExactIfExists(key)
}

// PrefixIterator implements [kvq.Reader] by merging the buffer with the
// base store's own prefix iterator in ascending key order, with the
// buffer winning on key ties (including shadowing base keys under a
// buffered tombstone).
func (c *Cache) PrefixIterator(prefix []byte) (kvq.Iterator, error) {
	c.mu.Lock()

	start := sort.Search(len(c.entries), func(i int) bool {
		return bytes.Compare(c.entries[i].key, prefix) >= 0
	})

	var buf []bufEntry

	for i := start; i < len(c.entries); i++ {
		if !bytes.HasPrefix(c.entries[i].key, prefix) {
			break
		}

		buf = append(buf, bufEntry{
			key:     append([]byte(nil), c.entries[i].key...),
			value:   append([]byte(nil), c.entries[i].value...),
			removed: c.entries[i].removed,
		})
	}

	c.mu.Unlock()

	baseIt, err := c.base.PrefixIterator(prefix)
	if err != nil {
		return nil, err
	}

	return &mergeIterator{buf: buf, base: baseIt}, nil
}

// mergeIterator walks the buffered snapshot and the base store's prefix
// iterator in lockstep ascending order, preferring the buffer whenever
// both sides have the same key, and skipping tombstoned keys entirely.
type mergeIterator struct {
	buf    []bufEntry
	bufIdx int
	base   kvq.Iterator

	baseKey     []byte
	baseValue   []byte
	baseOK      bool
	baseDone    bool
	baseErr     error
	baseStarted bool

	key   []byte
	value []byte
	err   error
}

func (it *mergeIterator) advanceBase() {
	it.baseStarted = true

	if it.baseDone {
		it.baseOK = false

		return
	}

	if !it.base.Next() {
		it.baseDone = true
		it.baseOK = false
		it.baseErr = it.base.Err()

		return
	}

	it.baseKey = it.base.Key()
	it.baseValue = it.base.Value()
	it.baseOK = true
}

func (it *mergeIterator) Next() bool {
	if it.err != nil {
		return false
	}

	if !it.baseStarted {
		it.advanceBase()

		if it.baseErr != nil {
			it.err = it.baseErr

			return false
		}
	}

	for {
		haveBuf := it.bufIdx < len(it.buf)
		haveBase := it.baseOK

		if !haveBuf && !haveBase {
			return false
		}

		var useBuf bool

		switch {
		case haveBuf && !haveBase:
			useBuf = true
		case !haveBuf && haveBase:
			useBuf = false
		default:
			cmp := bytes.Compare(it.buf[it.bufIdx].key, it.baseKey)
			useBuf = cmp <= 0

			if cmp == 0 {
				// buffer shadows base: consume the base entry too.
				it.advanceBase()

				if it.baseErr != nil {
					it.err = it.baseErr

					return false
				}
			}
		}

		if useBuf {
			e := it.buf[it.bufIdx]
			it.bufIdx++

			if e.removed {
				continue
			}

			it.key, it.value = e.key, e.value

			return true
		}

		it.key, it.value = it.baseKey, it.baseValue
		it.advanceBase()

		if it.baseErr != nil {
			it.err = it.baseErr

			return false
		}

		return true
	}
}

func (it *mergeIterator) Key() []byte   { return it.key }
func (it *mergeIterator) Value() []byte { return it.value }
func (it *mergeIterator) Err() error    { return it.err }
func (it *mergeIterator) Close() error  { return it.base.Close() }

// Set implements [kvq.Writer] against the buffer; no write reaches the
// base store until [Cache.FlushSimple].
func (c *Cache) Set(key, value []byte) error {
	return c.SetMany([]kvq.Pair{{Key: key, Value: value}})
}

// SetMany implements [kvq.Writer] against the buffer.
func (c *Cache) SetMany(pairs []kvq.Pair) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range pairs {
		c.put(bufEntry{key: append([]byte(nil), p.Key...), value: append([]byte(nil), p.Value...)})
	}

	return nil
}

// Delete implements [kvq.Writer] against the buffer. It reports true only
// when the key existed in the merged (buffer-over-base) view immediately
// before the delete.
func (c *Cache) Delete(key []byte) (bool, error) {
	existed, err := c.DeleteMany([][]byte{key})
	if err != nil {
		return false, err
	}

	return existed[0], nil
}

// DeleteMany implements [kvq.Writer] against the buffer.
func (c *Cache) DeleteMany(keys [][]byte) ([]bool, error) {
	out := make([]bool, len(keys))

	for i, key := range keys {
		_, existed, err := c.GetExactIfExists(key)
		if err != nil {
			return nil, err
		}

		out[i] = existed

		c.mu.Lock()
		c.put(bufEntry{key: append([]byte(nil), key...), removed: true})
		c.mu.Unlock()
	}

	return out, nil
}

// put inserts or overwrites the buffered entry for e.key. Caller holds
// c.mu.
func (c *Cache) put(e bufEntry) {
	idx, found := c.search(e.key)
	if found {
		c.entries[idx] = e

		return
	}

	c.entries = append(c.entries, bufEntry{})
	copy(c.entries[idx+1:], c.entries[idx:])
	c.entries[idx] = e
}

// IsRemoved reports whether key is buffered as a tombstone.
func (c *Cache) IsRemoved(key []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, found := c.search(key)

	return found && c.entries[idx].removed
}

// NonRemovedKeys returns every buffered (set) key, in ascending order.
func (c *Cache) NonRemovedKeys() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out [][]byte

	for _, e := range c.entries {
		if !e.removed {
			out = append(out, append([]byte(nil), e.key...))
		}
	}

	return out
}

// RemovedKeys returns every buffered tombstone key, in ascending order.
func (c *Cache) RemovedKeys() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out [][]byte

	for _, e := range c.entries {
		if e.removed {
			out = append(out, append([]byte(nil), e.key...))
		}
	}

	return out
}

// FlushSimple applies the buffer to the base store (sets then deletes)
// and clears it. Used outside block processing, where no journal needs
// to classify the writes.
func (c *Cache) FlushSimple() error {
	c.mu.Lock()

	var sets []kvq.Pair

	var deletes [][]byte

	for _, e := range c.entries {
		if e.removed {
			deletes = append(deletes, e.key)

			continue
		}

		sets = append(sets, kvq.Pair{Key: e.key, Value: e.value})
	}

	c.entries = nil

	c.mu.Unlock()

	if len(sets) > 0 {
		if err := c.base.SetMany(sets); err != nil {
			return err
		}
	}

	if len(deletes) > 0 {
		if _, err := c.base.DeleteMany(deletes); err != nil {
			return err
		}
	}

	return nil
}

// FlushChanges returns the buffered writes and deletes without applying
// them to the base store, and clears the buffer. The Block Journal uses
// this to classify changes against the pre-block state before the Fork
// Engine commits them.
func (c *Cache) FlushChanges() (writes []kvq.Pair, deletes [][]byte, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.removed {
			deletes = append(deletes, e.key)

			continue
		}

		writes = append(writes, kvq.Pair{Key: e.key, Value: e.value})
	}

	c.entries = nil

	return writes, deletes, nil
}

// Base returns the underlying store the cache reads through to.
func (c *Cache) Base() kvq.Store { return c.base }

// Package memstore implements an in-memory ordered binary store: a
// sorted-slice backend for [kvq.Store], used for tests and as the cheap
// default when durability is not required.
package memstore

import (
	"bytes"
	"sort"
	"sync"

	"github.com/txidx/txidx/kvq"
)

type entry struct {
	key   []byte
	value []byte
}

// Store is an in-memory, lexicographically ordered [kvq.Store]. The zero
// value is not usable; construct with [New]. Store is safe for
// concurrent use: every method acquires an internal mutex, so callers
// may share one Store across goroutines without their own locking.
type Store struct {
	mu      sync.Mutex
	entries []entry // sorted ascending by key
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

func (s *Store) search(key []byte) (idx int, found bool) {
	idx = sort.Search(len(s.entries), func(i int) bool {
		return bytes.Compare(s.entries[i].key, key) >= 0
	})

	found = idx < len(s.entries) && bytes.Equal(s.entries[idx].key, key)

	return idx, found
}

// GetExact implements [kvq.Reader].
func (s *Store) GetExact(key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, found := s.search(key)
	if !found {
		return nil, kvq.NotFound(key)
	}

	return append([]byte(nil), s.entries[idx].value...), nil
}

// GetExactIfExists implements [kvq.Reader].
func (s *Store) GetExactIfExists(key []byte) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, found := s.search(key)
	if !found {
		return nil, false, nil
	}

	return append([]byte(nil), s.entries[idx].value...), true, nil
}

// PrefixIterator implements [kvq.Reader]. The returned iterator is a
// snapshot of the matching entries taken under lock; it does not observe
// later writes.
func (s *Store) PrefixIterator(prefix []byte) (kvq.Iterator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := sort.Search(len(s.entries), func(i int) bool {
		return bytes.Compare(s.entries[i].key, prefix) >= 0
	})

	var snap []entry

	for i := start; i < len(s.entries); i++ {
		if !bytes.HasPrefix(s.entries[i].key, prefix) {
			break
		}

		snap = append(snap, entry{
			key:   append([]byte(nil), s.entries[i].key...),
			value: append([]byte(nil), s.entries[i].value...),
		})
	}

	return &sliceIterator{entries: snap, idx: -1}, nil
}

// Set implements [kvq.Writer].
func (s *Store) Set(key, value []byte) error {
	return s.SetMany([]kvq.Pair{{Key: key, Value: value}})
}

// SetMany implements [kvq.Writer].
func (s *Store) SetMany(pairs []kvq.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range pairs {
		idx, found := s.search(p.Key)

		kv := entry{key: append([]byte(nil), p.Key...), value: append([]byte(nil), p.Value...)}

		if found {
			s.entries[idx] = kv

			continue
		}

		s.entries = append(s.entries, entry{})
		copy(s.entries[idx+1:], s.entries[idx:])
		s.entries[idx] = kv
	}

	return nil
}

// Delete implements [kvq.Writer]. It reports true only when the key was
// present before the delete.
func (s *Store) Delete(key []byte) (bool, error) {
	existed, err := s.DeleteMany([][]byte{key})
	if err != nil {
		return false, err
	}

	return existed[0], nil
}

// DeleteMany implements [kvq.Writer].
func (s *Store) DeleteMany(keys [][]byte) ([]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]bool, len(keys))

	for i, key := range keys {
		idx, found := s.search(key)
		if !found {
			continue
		}

		out[i] = true
		s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	}

	return out, nil
}

type sliceIterator struct {
	entries []entry
	idx     int
}

func (it *sliceIterator) Next() bool {
	it.idx++

	return it.idx < len(it.entries)
}

func (it *sliceIterator) Key() []byte   { return it.entries[it.idx].key }
func (it *sliceIterator) Value() []byte { return it.entries[it.idx].value }
func (it *sliceIterator) Err() error    { return nil }
func (it *sliceIterator) Close() error  { return nil }

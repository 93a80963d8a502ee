// Package sqlitestore implements a persistent ordered binary store
// ([kvq.Store]) on top of github.com/mattn/go-sqlite3.
//
// A single table (key BLOB PRIMARY KEY, value BLOB) relies on SQLite's
// default byte-wise BLOB collation, which matches this module's required
// lexicographic ordering exactly. Batched writes run inside a single
// transaction so that, once SetMany/DeleteMany return, the batch survives
// restart. An internal mutex serializes write batches so single-method
// calls are atomic with respect to concurrent readers.
package sqlitestore

import (
	"bytes"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/txidx/txidx/kvq"
)

// Store is a SQLite-backed [kvq.Store]. Construct with [Open]; call
// [Store.Close] when done.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite-backed store at path. Use
// ":memory:" for an ephemeral in-process database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, kvq.Backend(fmt.Errorf("open sqlite store: %w", err))
	}

	// Writes are single-writer; one connection keeps SQLite's own locking
	// from fighting with our internal mutex.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv (key BLOB PRIMARY KEY, value BLOB NOT NULL) WITHOUT ROWID`)
	if err != nil {
		_ = db.Close()

		return nil, kvq.Backend(fmt.Errorf("create kv table: %w", err))
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}

// GetExact implements [kvq.Reader].
func (s *Store) GetExact(key []byte) ([]byte, error) {
	v, ok, err := s.GetExactIfExists(key)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, kvq.NotFound(key)
	}

	return v, nil
}

// GetExactIfExists implements [kvq.Reader].
func (s *Store) GetExactIfExists(key []byte) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value []byte

	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, kvq.Backend(err)
	}

	return value, true, nil
}

// PrefixIterator implements [kvq.Reader]. The returned iterator holds the
// open query result and streams rows; it must be closed by the caller.
func (s *Store) PrefixIterator(prefix []byte) (kvq.Iterator, error) {
	s.mu.Lock()

	rows, err := s.db.Query(`SELECT key, value FROM kv WHERE key >= ? ORDER BY key ASC`, prefix)
	if err != nil {
		s.mu.Unlock()

		return nil, kvq.Backend(err)
	}

	return &rowIterator{mu: &s.mu, rows: rows, prefix: prefix}, nil
}

// Set implements [kvq.Writer].
func (s *Store) Set(key, value []byte) error {
	return s.SetMany([]kvq.Pair{{Key: key, Value: value}})
}

// SetMany implements [kvq.Writer]. All pairs are written in a single
// transaction.
func (s *Store) SetMany(pairs []kvq.Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return kvq.Backend(err)
	}

	stmt, err := tx.Prepare(`INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`)
	if err != nil {
		_ = tx.Rollback()

		return kvq.Backend(err)
	}

	for _, p := range pairs {
		if _, err := stmt.Exec(p.Key, p.Value); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()

			return kvq.Backend(err)
		}
	}

	_ = stmt.Close()

	if err := tx.Commit(); err != nil {
		return kvq.Backend(err)
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

	tx, err := s.db.Begin()
	if err != nil {
		return nil, kvq.Backend(err)
	}

	out := make([]bool, len(keys))

	for i, key := range keys {
		res, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, key)
		if err != nil {
			_ = tx.Rollback()

			return nil, kvq.Backend(err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()

			return nil, kvq.Backend(err)
		}

		out[i] = n > 0
	}

	if err := tx.Commit(); err != nil {
		return nil, kvq.Backend(err)
	}

	return out, nil
}

type rowIterator struct {
	mu     *sync.Mutex
	rows   *sql.Rows
	prefix []byte
	key    []byte
	value  []byte
	err    error
	done   bool
	closed bool
}

func (it *rowIterator) Next() bool {
	if it.done || it.err != nil {
		return false
	}

	if !it.rows.Next() {
		it.done = true

		return false
	}

	var key, value []byte
	if err := it.rows.Scan(&key, &value); err != nil {
		it.err = kvq.Backend(err)
		it.done = true

		return false
	}

	if !bytes.HasPrefix(key, it.prefix) {
		it.done = true

		return false
	}

	it.key, it.value = key, value

	return true
}

func (it *rowIterator) Key() []byte   { return it.key }
func (it *rowIterator) Value() []byte { return it.value }
func (it *rowIterator) Err() error    { return it.err }

func (it *rowIterator) Close() error {
	if it.closed {
		return nil
	}

	it.closed = true

	err := it.rows.Close()
	it.mu.Unlock()

	if err != nil {
		return kvq.Backend(err)
	}

	return nil
}

// Package worker implements the Worker Runtime (WR): the thin dispatch
// layer between the Fork Engine and user-supplied worker modules. A
// worker receives a block-scoped [DB] handle — a Cached Overlay plus the
// journal metadata being accumulated for the block it is processing —
// and MUST go through it for every read and write; it never touches the
// base store directly.
package worker

import (
	"github.com/txidx/txidx/chain"
	"github.com/txidx/txidx/journal"
	"github.com/txidx/txidx/kvq/cache"
	"github.com/txidx/txidx/table"
)

// DB is the block-scoped handle a worker writes through: a Cached
// Overlay over the shared base store, the height currently being
// processed, and the journal metadata/actions being accumulated for it.
type DB struct {
	CO      *cache.Cache
	Height  uint64
	Meta    journal.Metadata
	Actions []journal.Action
}

// New builds the block-scoped DB for height over co, the Cached Overlay
// the worker reads and writes through.
func New(co *cache.Cache, height uint64, meta journal.Metadata) *DB {
	return &DB{CO: co, Height: height, Meta: meta}
}

// EmitAction appends an audit action to the journal being built for this
// block. Workers call this to record what they did, not to perform
// indexing itself.
func (db *DB) EmitAction(a journal.Action) {
	db.Actions = append(db.Actions, a)
}

// Get reads key from table d as of db.Height: for a FUZZY_BLOCK_INDEX
// table this is a predecessor lookup with fuzzyBytes masking the user
// key's variable tail (0 for a fixed-width key); for WRITE_ONCE and
// STANDARD tables it is an exact lookup, and height is ignored.
func Get[K, V any](db *DB, d table.Descriptor[K, V], key K, fuzzyBytes int) (V, bool, error) {
	if d.Kind == table.FuzzyBlockIndex {
		_, v, ok, err := table.GetLeqKVAtBlock(db.CO, d, db.Height, key, fuzzyBytes)

		return v, ok, err
	}

	return table.GetExactIfExistsAtBlock(db.CO, d, db.Height, key)
}

// Put writes key=value into table d at db.Height.
func Put[K, V any](db *DB, d table.Descriptor[K, V], key K, value V) error {
	return table.SetAtBlock(db.CO, d, db.Height, key, value)
}

// Delete removes key from table d. Only STANDARD tables support
// deletion; see the journal package's classification step, which
// rejects deletes against any other kind once the block is committed.
func Delete[K, V any](db *DB, d table.Descriptor[K, V], key K) (bool, error) {
	return table.DeleteAtBlock(db.CO, d, db.Height, key)
}

// Worker processes one block against a block-scoped DB, using oracle for
// any chain data it needs beyond the block already supplied. Workers
// MUST NOT touch the base store directly — only through db.
type Worker interface {
	ProcessBlock(db *DB, oracle chain.Oracle, height uint64, block chain.Block) error
}

// Func adapts a plain function to [Worker].
type Func func(db *DB, oracle chain.Oracle, height uint64, block chain.Block) error

// ProcessBlock implements [Worker].
func (f Func) ProcessBlock(db *DB, oracle chain.Oracle, height uint64, block chain.Block) error {
	return f(db, oracle, height, block)
}

// Chain composes workers into a single root [Worker] that runs each in
// order, stopping at the first error.
type Chain []Worker

// ProcessBlock implements [Worker].
func (c Chain) ProcessBlock(db *DB, oracle chain.Oracle, height uint64, block chain.Block) error {
	for _, w := range c {
		if err := w.ProcessBlock(db, oracle, height, block); err != nil {
			return err
		}
	}

	return nil
}

// Package forkengine implements the Fork Engine (FE): the driver that
// rolls the base store back through recorded journals until it matches
// the state just before an incoming block, fills any gap left by a
// chain that moved ahead without this store noticing, then applies the
// incoming block and commits its journal.
//
// The rollback loop peeks the latest journal, exits once it is already
// behind the incoming height, and otherwise undoes it and repeats —
// there is no separate early-return path for the final rollback.
package forkengine

import (
	"errors"
	"fmt"

	"github.com/txidx/txidx/chain"
	"github.com/txidx/txidx/journal"
	"github.com/txidx/txidx/kvq"
	"github.com/txidx/txidx/kvq/cache"
	"github.com/txidx/txidx/worker"
)

// ErrConsistency reports that an internal invariant the rollback loop or
// gap fill depends on did not hold. This is fatal: callers should stop
// indexing rather than retry.
var ErrConsistency = errors.New("forkengine: consistency violation")

// UpdateWithBlock advances base to height by rolling back any journaled
// blocks at or above height, filling any gap between the resulting tip
// and height-1 via oracle, then applying block through w and committing
// its journal.
func UpdateWithBlock(base kvq.Store, oracle chain.Oracle, w worker.Worker, height uint64, block chain.Block) error {
	ready, err := rollbackToReady(base, height)
	if err != nil {
		return err
	}

	if ready > height {
		return fmt.Errorf("%w: rollback left store ready at %d past incoming height %d", ErrConsistency, ready, height)
	}

	for m := ready; m < height; m++ {
		gapBlock, err := oracle.GetBlock(m)
		if err != nil {
			return fmt.Errorf("forkengine: gap fill fetch height %d: %w", m, err)
		}

		if err := processAndCommit(base, oracle, w, m, gapBlock); err != nil {
			return fmt.Errorf("forkengine: gap fill process height %d: %w", m, err)
		}
	}

	return processAndCommit(base, oracle, w, height, block)
}

// rollbackToReady undoes journaled blocks at or above height until the
// latest remaining journal is below height (or the store is empty), and
// returns the height the store is now ready to accept next.
func rollbackToReady(base kvq.Store, height uint64) (uint64, error) {
	for {
		latest, ok, err := journal.GetLatest(base)
		if err != nil {
			return 0, err
		}

		if !ok {
			return 0, nil
		}

		if latest.Metadata.Height < height {
			return latest.Metadata.Height + 1, nil
		}

		if err := rollbackBlock(base, latest); err != nil {
			return 0, err
		}
	}
}

// rollbackBlock undoes the mutations recorded in latest and deletes its
// journal row.
func rollbackBlock(base kvq.Store, latest *journal.IndexedBlockFull) error {
	restores, deletes := latest.Inverse()

	if len(restores) > 0 {
		if err := base.SetMany(restores); err != nil {
			return err
		}
	}

	if len(deletes) > 0 {
		if _, err := base.DeleteMany(deletes); err != nil {
			return err
		}
	}

	if _, err := journal.DeleteAtHeight(base, latest.Metadata.Height); err != nil {
		return err
	}

	return nil
}

// processAndCommit runs w over a fresh Cached Overlay for height, then
// classifies and commits its buffered changes: the journal records old
// values read from base (the pre-block state), never from the overlay
// that is about to be flushed on top of it.
func processAndCommit(base kvq.Store, oracle chain.Oracle, w worker.Worker, height uint64, block chain.Block) error {
	co := cache.New(base)

	meta := journal.Metadata{Height: height, BlockTime: block.Time, BlockHash: block.Hash}
	db := worker.New(co, height, meta)

	if err := w.ProcessBlock(db, oracle, height, block); err != nil {
		return err
	}

	writes, deletes, err := co.FlushChanges()
	if err != nil {
		return err
	}

	ib, err := journal.Classify(base, writes, deletes, meta, db.Actions)
	if err != nil {
		return err
	}

	if len(writes) > 0 {
		if err := base.SetMany(writes); err != nil {
			return err
		}
	}

	if len(deletes) > 0 {
		if _, err := base.DeleteMany(deletes); err != nil {
			return err
		}
	}

	return journal.Put(base, ib)
}

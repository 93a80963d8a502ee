// Package journal implements the Block Journal (BJ): one audit record
// per indexed block height, capturing every key the block's Cached
// Overlay touched so the Fork Engine can later undo it exactly.
//
// Classify reads STANDARD old values from the pre-block base reader, not
// from the flushed cache buffer: looking a key up through the cache that
// just wrote it would resolve to the new value, and no key would ever
// classify as added. The journal table itself carries an empty logical
// key and relies solely on its FUZZY height suffix — keying it on both a
// duplicated height-as-logical-key and the height suffix would pin the
// predecessor scan's leading bytes at the sentinel value and make real
// lower heights fall outside the scanned window.
package journal

import (
	"bytes"
	"encoding/gob"
	"errors"

	"github.com/txidx/txidx/kvq"
	"github.com/txidx/txidx/table"
)

// ErrUnknownKeyKind is returned by [Classify] when a buffered write's
// physical key carries a table kind nibble Classify does not recognize.
var ErrUnknownKeyKind = errors.New("journal: unknown table kind in buffered key")

// ErrUnsupportedDelete is returned by [Classify] when a buffered delete
// targets a non-STANDARD table; only STANDARD rows support deletion.
var ErrUnsupportedDelete = errors.New("journal: delete is only supported for STANDARD tables")

// Metadata identifies the block a journal entry indexes.
type Metadata struct {
	Height    uint64
	BlockTime uint64
	BlockHash [32]byte
}

// Action is one audit entry a worker emitted while processing the block,
// e.g. "indexed transaction txid under worker W".
type Action struct {
	Txid       [32]byte
	WorkerID   uint32
	ActionType uint32
	ActionData []byte
}

// AddedStandardKey records a STANDARD key that did not exist before this
// block.
type AddedStandardKey struct {
	Key      []byte
	NewValue []byte
}

// ModifiedStandardKey records a STANDARD key that existed before this
// block and was overwritten.
type ModifiedStandardKey struct {
	Key      []byte
	NewValue []byte
	OldValue []byte
}

// RemovedStandardKey records a STANDARD key that was deleted during this
// block.
type RemovedStandardKey struct {
	Key   []byte
	Value []byte
}

// IndexedBlockFull is the full audit record for one indexed block:
// everything the Fork Engine needs to undo the block exactly.
type IndexedBlockFull struct {
	Metadata             Metadata
	Actions              []Action
	AddedFuzzyBlockKeys  [][]byte
	AddedWriteOnceKeys   [][]byte
	RemovedStandardKeys  []RemovedStandardKey
	ModifiedStandardKeys []ModifiedStandardKey
	AddedStandardKeys    []AddedStandardKey
}

// Classify turns a flushed Cached Overlay buffer (writes, deletes — the
// output of cache.Cache.FlushChanges) into an [IndexedBlockFull], reading
// old values from base, the pre-block store, not from the buffer itself.
func Classify(
	base kvq.Reader, writes []kvq.Pair, deletes [][]byte, meta Metadata, actions []Action,
) (*IndexedBlockFull, error) {
	ib := &IndexedBlockFull{Metadata: meta, Actions: actions}

	for _, w := range writes {
		switch table.KindOfRawKey(w.Key) {
		case table.WriteOnce:
			ib.AddedWriteOnceKeys = append(ib.AddedWriteOnceKeys, w.Key)
		case table.FuzzyBlockIndex:
			ib.AddedFuzzyBlockKeys = append(ib.AddedFuzzyBlockKeys, w.Key)
		case table.Standard:
			old, existed, err := base.GetExactIfExists(w.Key)
			if err != nil {
				return nil, err
			}

			if !existed {
				ib.AddedStandardKeys = append(ib.AddedStandardKeys, AddedStandardKey{Key: w.Key, NewValue: w.Value})
			} else {
				ib.ModifiedStandardKeys = append(ib.ModifiedStandardKeys, ModifiedStandardKey{
					Key: w.Key, NewValue: w.Value, OldValue: old,
				})
			}
		default:
			return nil, ErrUnknownKeyKind
		}
	}

	for _, key := range deletes {
		if table.KindOfRawKey(key) != table.Standard {
			return nil, ErrUnsupportedDelete
		}

		old, existed, err := base.GetExactIfExists(key)
		if err != nil {
			return nil, err
		}

		if existed {
			ib.RemovedStandardKeys = append(ib.RemovedStandardKeys, RemovedStandardKey{Key: key, Value: old})
		}
	}

	return ib, nil
}

// Inverse computes the writes and deletes that undo ib: every added key
// is deleted, and every modified or removed STANDARD key is restored to
// its pre-block value. Applying Inverse's result after ib was committed
// must reproduce the exact pre-block byte image.
func (ib *IndexedBlockFull) Inverse() (restores []kvq.Pair, deletes [][]byte) {
	deletes = append(deletes, ib.AddedFuzzyBlockKeys...)
	deletes = append(deletes, ib.AddedWriteOnceKeys...)

	for _, a := range ib.AddedStandardKeys {
		deletes = append(deletes, a.Key)
	}

	for _, m := range ib.ModifiedStandardKeys {
		restores = append(restores, kvq.Pair{Key: m.Key, Value: m.OldValue})
	}

	for _, r := range ib.RemovedStandardKeys {
		restores = append(restores, kvq.Pair{Key: r.Key, Value: r.Value})
	}

	return restores, deletes
}

func encodeRecord(r *IndexedBlockFull) []byte {
	var buf bytes.Buffer

	_ = gob.NewEncoder(&buf).Encode(r)

	return buf.Bytes()
}

func decodeRecord(b []byte) (*IndexedBlockFull, error) {
	var r IndexedBlockFull
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&r); err != nil {
		return nil, kvq.CodecErr(err)
	}

	return &r, nil
}

package journal

import (
	"github.com/txidx/txidx/kvq"
	"github.com/txidx/txidx/table"
)

// LatestHeightSentinel is the reserved height used to scan for "the
// highest committed journal" via a predecessor query. It must exceed
// every real block height this module will ever see.
const LatestHeightSentinel uint64 = 0x1FFFFFFFFFFFFFFF

// tableKey is the journal table's logical key type. It carries no bytes
// of its own — see the package doc's note on the journal table's
// physical key layout — so the only thing distinguishing journal rows is
// the FUZZY height suffix table.Descriptor already appends.
type tableKey struct{}

// Table is the reserved journal table: TABLE_ID 0, FUZZY_BLOCK_INDEX
// layout, one row per indexed block height.
var Table = table.Descriptor[tableKey, *IndexedBlockFull]{
	Name: "indexed_block",
	ID:   0,
	Kind: table.FuzzyBlockIndex,
	Codec: table.Codec[tableKey, *IndexedBlockFull]{
		EncodeKey:   func(tableKey) []byte { return nil },
		DecodeKey:   func([]byte) (tableKey, error) { return tableKey{}, nil },
		EncodeValue: encodeRecord,
		DecodeValue: decodeRecord,
	},
}

// Put persists rec under its own metadata.Height.
func Put(rw kvq.Store, rec *IndexedBlockFull) error {
	return table.SetAtBlock(rw, Table, rec.Metadata.Height, tableKey{}, rec)
}

// GetAtHeight returns the journal committed for exactly height, if any.
func GetAtHeight(r kvq.Reader, height uint64) (*IndexedBlockFull, bool, error) {
	return table.GetExactIfExistsAtBlock(r, Table, height, tableKey{})
}

// GetLatest returns the journal for the highest committed height, if
// any, via a predecessor query at [LatestHeightSentinel].
func GetLatest(r kvq.Reader) (*IndexedBlockFull, bool, error) {
	_, rec, ok, err := table.GetLeqKVAtBlock(r, Table, LatestHeightSentinel, tableKey{}, 0)

	return rec, ok, err
}

// DeleteAtHeight removes the journal row for height and reports whether
// it existed.
func DeleteAtHeight(rw kvq.Store, height uint64) (bool, error) {
	return table.DeleteAtBlock(rw, Table, height, tableKey{})
}

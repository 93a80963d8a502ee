package forkengine_test

import (
	"encoding/hex"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/txidx/txidx/chain"
	"github.com/txidx/txidx/forkengine"
	"github.com/txidx/txidx/journal"
	"github.com/txidx/txidx/kvq/memstore"
	"github.com/txidx/txidx/table"
	"github.com/txidx/txidx/worker"
)

var heights = table.Descriptor[string, string]{
	Name: "heights_seen",
	ID:   1,
	Kind: table.Standard,
	Codec: table.Codec[string, string]{
		EncodeKey:   func(s string) []byte { return []byte(s) },
		DecodeKey:   func(b []byte) (string, error) { return string(b), nil },
		EncodeValue: func(s string) []byte { return []byte(s) },
		DecodeValue: func(b []byte) (string, error) { return string(b), nil },
	},
}

// hashTagWorker records, per height, the hash of the block it processed,
// so tests can distinguish an original chain's block from a fork's.
var hashTagWorker = worker.Func(func(db *worker.DB, oracle chain.Oracle, height uint64, block chain.Block) error {
	key := "h:" + strconv.FormatUint(height, 10)

	return worker.Put(db, heights, key, hex.EncodeToString(block.Hash[:]))
})

func heightKey(h uint64) string { return "h:" + strconv.FormatUint(h, 10) }

func TestUpdateWithBlock_SequentialApply(t *testing.T) {
	t.Parallel()

	base := memstore.New()
	oracle := chain.NewFakeChain("regtest")

	var blocks []chain.Block
	for i := 0; i < 3; i++ {
		blocks = append(blocks, oracle.AppendBlock(nil, uint64(1000+i)))
	}

	for _, b := range blocks {
		require.NoError(t, forkengine.UpdateWithBlock(base, oracle, hashTagWorker, b.Height, b))
	}

	for _, b := range blocks {
		v, ok, err := base.GetExactIfExists(append([]byte{0x20, 0, 0, 1}, []byte(heightKey(b.Height))...))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, hex.EncodeToString(b.Hash[:]), string(v))
	}

	latest, ok, err := journal.GetLatest(base)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(2), latest.Metadata.Height)
}

func TestUpdateWithBlock_GapFill(t *testing.T) {
	t.Parallel()

	base := memstore.New()
	oracle := chain.NewFakeChain("regtest")

	var blocks []chain.Block
	for i := 0; i < 5; i++ {
		blocks = append(blocks, oracle.AppendBlock(nil, uint64(2000+i)))
	}

	require.NoError(t, forkengine.UpdateWithBlock(base, oracle, hashTagWorker, blocks[0].Height, blocks[0]))

	require.NoError(t, forkengine.UpdateWithBlock(base, oracle, hashTagWorker, blocks[4].Height, blocks[4]))

	for _, b := range blocks {
		rec, ok, err := journal.GetAtHeight(base, b.Height)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, b.Height, rec.Metadata.Height)
	}
}

func TestUpdateWithBlock_ReorgRollsBackAndReapplies(t *testing.T) {
	t.Parallel()

	base := memstore.New()
	oracle := chain.NewFakeChain("regtest")

	b0 := oracle.AppendBlock(nil, 3000)
	_ = oracle.AppendBlock(nil, 3001)
	b2 := oracle.AppendBlock(nil, 3002)

	require.NoError(t, forkengine.UpdateWithBlock(base, oracle, hashTagWorker, b0.Height, b0))
	require.NoError(t, forkengine.UpdateWithBlock(base, oracle, hashTagWorker, 1, chain.Block{Height: 1}))
	require.NoError(t, forkengine.UpdateWithBlock(base, oracle, hashTagWorker, b2.Height, b2))

	oracle.Reorg(1)
	forkBlock := oracle.AppendBlock(nil, 9000)
	require.Equal(t, uint64(1), forkBlock.Height)
	require.NotEqual(t, forkBlock.Hash, b2.Hash)

	require.NoError(t, forkengine.UpdateWithBlock(base, oracle, hashTagWorker, forkBlock.Height, forkBlock))

	_, ok, err := journal.GetAtHeight(base, 2)
	require.NoError(t, err)
	require.False(t, ok)

	rec1, ok, err := journal.GetAtHeight(base, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, forkBlock.Hash, rec1.Metadata.BlockHash)

	v, ok, err := base.GetExactIfExists(append([]byte{0x20, 0, 0, 1}, []byte(heightKey(1))...))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, hex.EncodeToString(forkBlock.Hash[:]), string(v))

	v0, ok, err := base.GetExactIfExists(append([]byte{0x20, 0, 0, 1}, []byte(heightKey(0))...))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, hex.EncodeToString(b0.Hash[:]), string(v0))

	latest, ok, err := journal.GetLatest(base)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), latest.Metadata.Height)
}

func TestUpdateWithBlock_StandardAddModifyDeleteRoundTrip(t *testing.T) {
	t.Parallel()

	tbl := table.Descriptor[string, string]{
		Name: "t", ID: 2, Kind: table.Standard,
		Codec: table.Codec[string, string]{
			EncodeKey:   func(s string) []byte { return []byte(s) },
			DecodeKey:   func(b []byte) (string, error) { return string(b), nil },
			EncodeValue: func(s string) []byte { return []byte(s) },
			DecodeValue: func(b []byte) (string, error) { return string(b), nil },
		},
	}

	base := memstore.New()

	rk := func(key string) []byte {
		return append([]byte{0x20, 0, 0, 2}, []byte(key)...)
	}
	require.NoError(t, base.Set(rk("B"), []byte("2")))
	require.NoError(t, base.Set(rk("C"), []byte("9")))

	oracle := chain.NewFakeChain("regtest")
	block := oracle.AppendBlock(nil, 100)

	w := worker.Func(func(db *worker.DB, o chain.Oracle, h uint64, b chain.Block) error {
		if err := worker.Put(db, tbl, "A", "1"); err != nil {
			return err
		}

		if err := worker.Put(db, tbl, "B", "3"); err != nil {
			return err
		}

		_, err := worker.Delete(db, tbl, "C")

		return err
	})

	require.NoError(t, forkengine.UpdateWithBlock(base, oracle, w, block.Height, block))

	rec, ok, err := journal.GetAtHeight(base, block.Height)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, rec.AddedStandardKeys, 1)
	require.Equal(t, "1", string(rec.AddedStandardKeys[0].NewValue))
	require.Len(t, rec.ModifiedStandardKeys, 1)
	require.Equal(t, "2", string(rec.ModifiedStandardKeys[0].OldValue))
	require.Equal(t, "3", string(rec.ModifiedStandardKeys[0].NewValue))
	require.Len(t, rec.RemovedStandardKeys, 1)
	require.Equal(t, "9", string(rec.RemovedStandardKeys[0].Value))

	// Roll the block back by feeding the engine height 0 again with a
	// no-op worker and an empty oracle: the rollback loop undoes journal 0,
	// there is no gap to fill, and the re-applied no-op block writes only
	// an empty journal.
	emptyOracle := chain.NewFakeChain("regtest")
	noop := worker.Func(func(db *worker.DB, o chain.Oracle, h uint64, b chain.Block) error { return nil })

	require.NoError(t, forkengine.UpdateWithBlock(base, emptyOracle, noop, 0, chain.Block{Height: 0}))

	a, ok, err := base.GetExactIfExists(rk("A"))
	require.NoError(t, err)
	require.False(t, ok)
	_ = a

	b, ok, err := base.GetExactIfExists(rk("B"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", string(b))

	c, ok, err := base.GetExactIfExists(rk("C"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "9", string(c))
}

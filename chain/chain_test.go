package chain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/txidx/txidx/chain"
)

func TestFakeChain_AppendAndLookup(t *testing.T) {
	t.Parallel()

	c := chain.NewFakeChain("regtest")

	tx := chain.Transaction{Txid: [32]byte{1}, Raw: []byte("tx0")}
	b0 := c.AppendBlock([]chain.Transaction{tx}, 1000)
	require.Equal(t, uint64(0), b0.Height)
	require.Equal(t, [32]byte{}, b0.PrevHash)

	b1 := c.AppendBlock(nil, 1001)
	require.Equal(t, uint64(1), b1.Height)
	require.Equal(t, b0.Hash, b1.PrevHash)

	got, err := c.GetBlock(0)
	require.NoError(t, err)
	require.Equal(t, b0, got)

	gotByHash, err := c.GetBlockByHash(b1.Hash)
	require.NoError(t, err)
	require.Equal(t, b1, gotByHash)

	latest, err := c.GetLatestBlock()
	require.NoError(t, err)
	require.Equal(t, b1, latest)

	gotTx, err := c.GetTransaction(tx.Txid)
	require.NoError(t, err)
	require.Equal(t, tx, gotTx)

	hash, err := c.GetBlockHash(0)
	require.NoError(t, err)
	require.Equal(t, b0.Hash, hash)
}

func TestFakeChain_MissingHeightAndHash(t *testing.T) {
	t.Parallel()

	c := chain.NewFakeChain("regtest")

	_, err := c.GetBlock(0)
	require.ErrorIs(t, err, chain.ErrBlockNotFound)

	_, err = c.GetBlockByHash([32]byte{9})
	require.ErrorIs(t, err, chain.ErrBlockNotFound)

	_, err = c.GetLatestBlock()
	require.ErrorIs(t, err, chain.ErrBlockNotFound)

	_, err = c.GetTransaction([32]byte{9})
	require.ErrorIs(t, err, chain.ErrTransactionNotFound)
}

func TestFakeChain_Reorg(t *testing.T) {
	t.Parallel()

	c := chain.NewFakeChain("regtest")

	b0 := c.AppendBlock(nil, 1000)
	b1 := c.AppendBlock(nil, 1001)
	c.AppendBlock(nil, 1002)

	c.Reorg(1)

	latest, err := c.GetLatestBlock()
	require.NoError(t, err)
	require.Equal(t, b0, latest)

	_, err = c.GetBlockByHash(b1.Hash)
	require.ErrorIs(t, err, chain.ErrBlockNotFound)

	forked := c.AppendBlock(nil, 2000)
	require.Equal(t, uint64(1), forked.Height)
	require.Equal(t, b0.Hash, forked.PrevHash)
}

// Package chain defines the contract a worker uses to fetch block data
// it does not already have (the "chain oracle" collaborator the Fork
// Engine calls during gap fill), plus an in-memory fake implementation
// for tests and the txcounter example.
package chain

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrBlockNotFound is returned when a requested height or hash has no
// corresponding block.
var ErrBlockNotFound = errors.New("chain: block not found")

// ErrTransactionNotFound is returned when a requested txid is not in any
// known block.
var ErrTransactionNotFound = errors.New("chain: transaction not found")

// Transaction is the minimal transaction shape workers index. Inputs and
// Outputs carry the spending/receiving participant identifiers (e.g. a
// script hash) a worker groups by; callers populate these directly
// rather than deriving them from raw script bytes.
type Transaction struct {
	Txid    [32]byte
	Raw     []byte
	Inputs  [][]byte
	Outputs [][]byte
}

// Block is the minimal block shape workers and the Fork Engine operate
// on.
type Block struct {
	Height       uint64
	Hash         [32]byte
	PrevHash     [32]byte
	Time         uint64
	Transactions []Transaction
}

// Oracle is the chain data source a worker and the Fork Engine consult
// for blocks and transactions they do not already have buffered.
type Oracle interface {
	GetTransaction(txid [32]byte) (Transaction, error)
	GetBlock(height uint64) (Block, error)
	GetBlockHash(height uint64) ([32]byte, error)
	GetBlockByHash(hash [32]byte) (Block, error)
	GetLatestBlock() (Block, error)
	Network() string
}

// FakeChain is an in-memory [Oracle] for tests and examples: blocks are
// appended in order and assigned a synthesized hash, since no real
// consensus chain is wired up.
type FakeChain struct {
	mu      sync.Mutex
	network string
	blocks  []Block
	byHash  map[[32]byte]uint64
}

// NewFakeChain returns an empty FakeChain for the given network name
// (e.g. "regtest").
func NewFakeChain(network string) *FakeChain {
	return &FakeChain{network: network, byHash: make(map[[32]byte]uint64)}
}

// AppendBlock appends a new block built from txs at the given time and
// returns it. Its height is len(existing blocks); its hash is
// synthesized from a fresh UUID, and its PrevHash links to the previous
// tip (zero for the genesis block).
func (c *FakeChain) AppendBlock(txs []Transaction, blockTime uint64) Block {
	c.mu.Lock()
	defer c.mu.Unlock()

	height := uint64(len(c.blocks))

	var prev [32]byte
	if height > 0 {
		prev = c.blocks[height-1].Hash
	}

	b := Block{
		Height:       height,
		Hash:         synthesizeHash(),
		PrevHash:     prev,
		Time:         blockTime,
		Transactions: txs,
	}

	c.blocks = append(c.blocks, b)
	c.byHash[b.Hash] = height

	return b
}

// Reorg truncates the chain back to height (exclusive), discarding every
// block at or above it, so a subsequent AppendBlock builds a fork.
func (c *FakeChain) Reorg(height uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for h := height; h < uint64(len(c.blocks)); h++ {
		delete(c.byHash, c.blocks[h].Hash)
	}

	c.blocks = c.blocks[:height]
}

// GetTransaction implements [Oracle] by scanning every known block.
func (c *FakeChain) GetTransaction(txid [32]byte) (Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range c.blocks {
		for _, tx := range b.Transactions {
			if tx.Txid == txid {
				return tx, nil
			}
		}
	}

	return Transaction{}, ErrTransactionNotFound
}

// GetBlock implements [Oracle].
func (c *FakeChain) GetBlock(height uint64) (Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if height >= uint64(len(c.blocks)) {
		return Block{}, ErrBlockNotFound
	}

	return c.blocks[height], nil
}

// GetBlockHash implements [Oracle].
func (c *FakeChain) GetBlockHash(height uint64) ([32]byte, error) {
	b, err := c.GetBlock(height)
	if err != nil {
		return [32]byte{}, err
	}

	return b.Hash, nil
}

// GetBlockByHash implements [Oracle].
func (c *FakeChain) GetBlockByHash(hash [32]byte) (Block, error) {
	c.mu.Lock()
	height, ok := c.byHash[hash]
	c.mu.Unlock()

	if !ok {
		return Block{}, ErrBlockNotFound
	}

	return c.GetBlock(height)
}

// GetLatestBlock implements [Oracle].
func (c *FakeChain) GetLatestBlock() (Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.blocks) == 0 {
		return Block{}, ErrBlockNotFound
	}

	return c.blocks[len(c.blocks)-1], nil
}

// Network implements [Oracle].
func (c *FakeChain) Network() string { return c.network }

func synthesizeHash() [32]byte {
	id := uuid.New()

	var h [32]byte

	copy(h[0:16], id[:])
	copy(h[16:32], id[:])

	return h
}

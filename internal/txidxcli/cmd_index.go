package txidxcli

import (
	"fmt"

	"github.com/txidx/txidx/chain"
	"github.com/txidx/txidx/examples/txcounter"
	"github.com/txidx/txidx/forkengine"
	"github.com/txidx/txidx/kvq/sqlitestore"
)

func newIndexCommand(cfg Config) *Command {
	fs := newFlagSet("index")
	blocks := fs.Int("blocks", 10, "number of synthetic blocks to generate and index")

	return &Command{
		Flags: fs,
		Usage: "index [flags]",
		Short: "index a synthetic chain into the store via the txcounter example worker",
		Exec: func(o *IO, _ []string) error {
			return runIndex(o, cfg, *blocks)
		},
	}
}

func runIndex(o *IO, cfg Config, numBlocks int) error {
	store, err := sqlitestore.Open(cfg.DBPathAbs)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	oracle := chain.NewFakeChain(cfg.Network)

	participants := [][]byte{[]byte("p0"), []byte("p1"), []byte("p2")}

	for h := 0; h < numBlocks; h++ {
		txs := syntheticTransactions(uint64(h), participants)
		block := oracle.AppendBlock(txs, uint64(1_600_000_000+h*600))

		if err := forkengine.UpdateWithBlock(store, oracle, txcounter.Worker, block.Height, block); err != nil {
			return fmt.Errorf("index height %d: %w", block.Height, err)
		}
	}

	o.Printf("indexed %d blocks into %s\n", numBlocks, cfg.DBPathAbs)

	return nil
}

// syntheticTransactions deterministically builds two transactions for
// height: the first spends from participants[h%n] and pays
// participants[(h+1)%n], the second reverses the pair.
func syntheticTransactions(h uint64, participants [][]byte) []chain.Transaction {
	n := len(participants)
	a := participants[int(h)%n]
	b := participants[int(h+1)%n]

	txid := func(tag byte) [32]byte {
		var id [32]byte

		id[0] = tag
		id[24] = byte(h >> 24)
		id[25] = byte(h >> 16)
		id[26] = byte(h >> 8)
		id[27] = byte(h)

		return id
	}

	return []chain.Transaction{
		{Txid: txid(1), Inputs: [][]byte{a}, Outputs: [][]byte{b}},
		{Txid: txid(2), Inputs: [][]byte{b}, Outputs: [][]byte{a}},
	}
}

package txidxcli

import (
	"fmt"

	"github.com/txidx/txidx/examples/txcounter"
	"github.com/txidx/txidx/journal"
	"github.com/txidx/txidx/kvq/sqlitestore"
	"github.com/txidx/txidx/table"
)

func newQueryCommand(cfg Config) *Command {
	fs := newFlagSet("query")
	height := fs.Int64("height", -1, "block height to query the tx count for")
	participant := fs.String("participant", "", "participant identifier to query spend/receive counts for")

	return &Command{
		Flags: fs,
		Usage: "query [flags]",
		Short: "query the indexed tx count and participant counts",
		Exec: func(o *IO, _ []string) error {
			return runQuery(o, cfg, *height, *participant)
		},
	}
}

func runQuery(o *IO, cfg Config, height int64, participant string) error {
	store, err := sqlitestore.Open(cfg.DBPathAbs)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	latest, ok, err := journal.GetLatest(store)
	if err != nil {
		return fmt.Errorf("read latest journal: %w", err)
	}

	if !ok {
		o.Println("store is empty; run `txidx index` first")

		return nil
	}

	asOf := latest.Metadata.Height
	if height >= 0 {
		asOf = uint64(height)
	}

	if height >= 0 {
		count, ok, err := table.GetExactIfExistsAtBlock(store, txcounter.BlockTxCountTable, 0, uint64(height))
		if err != nil {
			return fmt.Errorf("read block tx count: %w", err)
		}

		if !ok {
			o.Printf("height %d: no tx count recorded\n", height)
		} else {
			o.Printf("height %d: %d transactions\n", height, count)
		}
	}

	if participant != "" {
		_, counts, ok, err := table.GetLeqKVAtBlock(store, txcounter.ParticipantCountsTable, asOf, []byte(participant), 0)
		if err != nil {
			return fmt.Errorf("read participant counts: %w", err)
		}

		if !ok {
			return fmt.Errorf("%w: %s as of height %d", ErrUnknownParticipant, participant, asOf)
		}

		o.Printf("participant %s as of height %d: spend=%d receive=%d\n",
			participant, asOf, counts.SpendCount, counts.ReceiveCount)
	}

	if height < 0 && participant == "" {
		o.Printf("indexed tip: height %d\n", latest.Metadata.Height)
	}

	return nil
}

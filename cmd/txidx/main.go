// Package main provides txidx, a CLI that indexes a synthetic chain into
// a versioned key-value substrate via the txcounter example worker, and
// queries the result.
package main

import (
	"os"

	"github.com/txidx/txidx/internal/txidxcli"
)

func main() {
	os.Exit(txidxcli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args))
}

package txidxcli

import flag "github.com/spf13/pflag"

func allCommands(cfg Config) []*Command {
	return []*Command{
		newIndexCommand(cfg),
		newQueryCommand(cfg),
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {}

	return fs
}

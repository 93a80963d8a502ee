package txidxcli

import (
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Run is the main entry point, adapted from internal/cli/run.go's global
// flag parsing + command dispatch shape. Returns the exit code.
func Run(_ io.Reader, out io.Writer, errOut io.Writer, args []string) int {
	globalFlags := flag.NewFlagSet("txidx", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.Usage = func() {}
	globalFlags.SetOutput(&strings.Builder{})

	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagCwd := globalFlags.StringP("cwd", "C", "", "Run as if started in `dir`")
	flagConfig := globalFlags.StringP("config", "c", "", "Use specified config `file`")
	flagDBPath := globalFlags.String("db-path", "", "Override the store's database `path`")
	flagNetwork := globalFlags.String("network", "", "Override the `network` name")

	if err := globalFlags.Parse(args[1:]); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)

		return 1
	}

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: *flagCwd,
		ConfigPath:      *flagConfig,
		DBPathOverride:  *flagDBPath,
		NetworkOverride: *flagNetwork,
	})
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)

		return 1
	}

	commands := allCommands(cfg)

	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	commandAndArgs := globalFlags.Args()

	if *flagHelp || len(commandAndArgs) == 0 {
		printUsage(out, commands)

		return 0
	}

	cmdName := commandAndArgs[0]

	cmd, ok := commandMap[cmdName]
	if !ok {
		fmt.Fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut, commands)

		return 1
	}

	return cmd.Run(NewIO(out, errOut), commandAndArgs[1:])
}

func printGlobalOptions(w io.Writer) {
	fmt.Fprintln(w, "Global flags: -C/--cwd, -c/--config, --db-path, --network")
}

func printUsage(w io.Writer, commands []*Command) {
	fmt.Fprintln(w, "txidx — index a chain into a versioned key-value substrate and query it")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: txidx [global flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")

	for _, cmd := range commands {
		fmt.Fprintln(w, cmd.HelpLine())
	}

	fmt.Fprintln(w)
	printGlobalOptions(w)
}

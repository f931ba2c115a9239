// Command foundry runs a code interpreter agent on an Azure AI Foundry
// project, downloads the files it generates and removes everything it
// created afterwards.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/pkg/logger"
	"github.com/spf13/pflag"
)

func main() {
	logger.Init(os.Stderr)

	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage()
		return errors.New("subcommand required")
	}

	subcommand := args[0]
	switch subcommand {
	case "run":
		return runAgent(args[1:], stdout)
	case "serve":
		return runServe(args[1:])
	case "cleanup":
		return runCleanup(args[1:], stdout)
	case "token":
		return runToken(args[1:], stdout)
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", subcommand)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: foundry <subcommand> [flags]

Subcommands:
  run       Create an agent, run one prompt, download generated files, clean up
  serve     Serve the agent over HTTP and WebSocket
  cleanup   Delete agents and threads left behind by interrupted runs
  token     Mint a bearer token for serve mode

Configuration is read from the environment and from a .env file.
Run 'foundry <subcommand> --help' for subcommand flags.
`)
}

// parseFlags parses a subcommand's flags. done is true when help was shown.
func parseFlags(flagSet *pflag.FlagSet, args []string) (done bool, err error) {
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, err
	}

	if help, _ := flagSet.GetBool("help"); help {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n%s", flagSet.Name(), flagSet.FlagUsages())
		return true, nil
	}

	if rest := flagSet.Args(); len(rest) > 0 {
		return false, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return false, nil
}

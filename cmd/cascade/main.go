// Command cascade runs grid scenarios through the pattern-cascade
// engine and inspects journaled chains.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/cascade/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}

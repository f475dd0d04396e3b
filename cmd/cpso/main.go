// Command cpso minimizes benchmark problems with a constrained particle
// swarm.
package main

import (
	"fmt"
	"os"

	"github.com/rwcarlsen/cpso/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cpso:", err)
		os.Exit(cli.ExitCode(err))
	}
}

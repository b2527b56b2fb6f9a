// Command cypherbuild builds parameterized Cypher queries from definition
// files.
package main

import (
	"os"

	"github.com/roach88/cypherbuild/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}

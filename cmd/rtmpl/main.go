// Command rtmpl resolves collections of recursively referencing templates.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/rtmpl/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rtmpl: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}

// Command kbound decides LTL realizability by bounded synthesis.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/kbound/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		code := cli.GetExitCode(err)
		if code == cli.ExitCommandError {
			fmt.Fprintln(os.Stderr, "kbound:", err)
		}
		os.Exit(code)
	}
}

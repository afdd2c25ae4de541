// Command stakewake runs deposit-backed wake-up challenges from the command
// line or over HTTP.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/stakewake/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

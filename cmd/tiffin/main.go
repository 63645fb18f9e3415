// Command tiffin is the counter till for a small restaurant.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/roach88/tiffin/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	err := root.ExecuteContext(context.Background())
	if err == nil {
		return
	}

	// Commands report their own errors. Anything else came from cobra
	// itself (unknown command, bad flags).
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(cli.GetExitCode(err))
}

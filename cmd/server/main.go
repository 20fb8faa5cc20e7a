// Command server is the game server's entry point: a cobra root
// command wiring a `serve` subcommand (the TCP listener and game loop)
// and a `replay` subcommand (read-only replay inspection).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "server",
		Short: "Runs the train-economy game server",
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newReplayCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

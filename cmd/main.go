package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sacredview",
	Short: "Browse the experiments stored in a Sacred MongoDB database",
	Long: `sacredview serves a small web page that connects to a MongoDB database
with user supplied credentials and lists the Sacred experiments it holds.

Without a subcommand it starts the web server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(experimentsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

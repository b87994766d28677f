// Package main is the evoql command line tool.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "evoql",
		Short:         "EvoQL query parser and service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.Version = version + " (commit=" + commit + ", built=" + date + ")"
	root.SetVersionTemplate("evoql version {{.Version}}\n")

	root.AddCommand(
		newParseCmd(),
		newTokensCmd(),
		newCheckCmd(),
		newBatchCmd(),
		newReplCmd(),
		newServeCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

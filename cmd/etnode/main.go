package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "etnode",
		Short: "Diagnostic report intake node",
		Long: `etnode receives diagnostic report archives over HTTP(S) and stores
them in a date-partitioned directory tree.

Uploads are authenticated with a shared-secret header and validated
(extension allow-list, zip integrity) before they are acknowledged.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

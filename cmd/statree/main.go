package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "statree",
		Short: "Fine-grained reactive state trees for Go",
		Long: `Statree mirrors a nested value as a tree of reactive nodes:
read, write, and observe any sub-path in O(1), with changes propagating
only toward ancestors.

The CLI ships development tooling:

  • demo     run a sample store with the live inspector
  • version  print build information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		demoCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// Command libraryctl is the operator CLI: it applies migrations, creates admin
// accounts and mints tokens for debugging.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "libraryctl",
		Short:         "Operator commands for the library API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newMigrateCmd(), newCreateAdminCmd(), newTokenCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

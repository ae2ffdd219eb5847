package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "posctl",
	Short:         "Operator tools for the mobile POS back end",
	Long:          "posctl runs schema migrations, bootstraps staff accounts and exports reports against the configured PostgreSQL database.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)

	// Staff
	rootCmd.AddCommand(createAdminCmd)

	// Reports
	rootCmd.AddCommand(exportCmd)
}

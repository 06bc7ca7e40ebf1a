// Package cli holds the bizledger command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the bizledger command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bizledger",
		Short: "Business ledger API for stock, quotations, invoices and payments",
		Long: `bizledger serves the HTTP API for inventory, customers, quotations,
invoices, payments and the finance summary.

Configuration is read from the environment (PG_DSN, REDIS_ADDR, APP_ADDR, ...).
Running without a subcommand starts the server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(newServeCommand(), newMigrateCommand(), newJobsCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

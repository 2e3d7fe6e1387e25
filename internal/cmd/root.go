package cmd

import (
	"fmt"
	"os"

	"github.com/corray333/backend-labs/shop/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shop",
	Short: "Shop - e-commerce record keeping service",
	Long: `Shop keeps users, products and orders in PostgreSQL and serves them over
a REST API. Orders snapshot product prices at purchase time.

Run without a subcommand to start the service.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		config.MustInit()
	},
	RunE: runServe,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

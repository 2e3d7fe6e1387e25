package cmd

import (
	"github.com/corray333/backend-labs/shop/internal/app"
	"github.com/corray333/backend-labs/shop/internal/demo"
	"github.com/spf13/cobra"
)

var demoClean bool

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted session against the configured database",
	Long: `Seed three users, three products and five orders, print them, change a
product price, delete a user and print the pending orders and the number of
orders per user.`,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().BoolVar(&demoClean, "clean", false, "delete users left over from a previous demo run first")
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, _ []string) error {
	a := app.MustNewApp()
	defer a.Close()

	runner := demo.NewRunner(a.UserSvc, a.ProductSvc, a.OrderSvc, cmd.OutOrStdout())
	runner.Clean = demoClean

	return runner.Run(cmd.Context())
}

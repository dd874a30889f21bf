package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	productID     string
	initialStock  int64
	totalRequests int
	quantity      int64
)

var rootCmd = &cobra.Command{
	Use:   "stress_test",
	Short: "Race concurrent settlements against limited stock",
	Long: `Fires many concurrent settlements for one product and checks that exactly
as many succeed as there were units in stock and that stock ends at zero.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if quantity <= 0 || totalRequests <= 0 || initialStock < 0 {
			return errors.New("--quantity and --requests must be positive, --stock must not be negative")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&productID, "product", "stress-shirt", "product id to settle")
	rootCmd.PersistentFlags().Int64Var(&initialStock, "stock", 20, "stock to reset the product to")
	rootCmd.PersistentFlags().IntVar(&totalRequests, "requests", 50, "number of concurrent settlements")
	rootCmd.PersistentFlags().Int64Var(&quantity, "quantity", 1, "units per settlement")

	rootCmd.AddCommand(localCmd, remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"inventory-backend/internal/importer"
	"inventory-backend/internal/inventory"

	"github.com/spf13/cobra"
)

var importStoreID uint

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import items from a .csv or .xlsx file",
	Long: `Adds one item per row of FILE to a store. Columns are matched by header
(brand, item, location, currentCount, targetAmount, extra, needed).
Files without such a header are read in the old supermarket export layout.

Examples:
  inventory import Supermarket.csv
  inventory import --store-id 2 cabin.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, l, db, err := bootstrap()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		repo := inventory.NewRepository(db, l, nil)
		res, err := importer.Import(context.Background(), repo, importStoreID, f.Name(), f)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Imported %d items, skipped %d.\n", res.Imported, res.Skipped)
		for _, e := range res.Errors {
			fmt.Fprintf(out, "  %s\n", e)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().UintVar(&importStoreID, "store-id", inventory.DefaultStoreID, "Store to import into")
	rootCmd.AddCommand(importCmd)
}

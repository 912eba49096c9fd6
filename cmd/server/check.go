package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"inventory-backend/internal/store"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Print stores with their item counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, l, db, err := bootstrap()
		if err != nil {
			return err
		}

		stats, err := store.NewRepository(db, l, nil).Stats(context.Background())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTORE\tACTIVE\tINACTIVE")
		for _, s := range stats {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", s.StoreID, s.Name, s.Active, s.Inactive)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bloodbank/m/internal/config"
	"bloodbank/m/internal/seed"
	"bloodbank/m/internal/store"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <units.csv>",
		Short: "Import blood units from a CSV file",
		Long: `Import reads a CSV whose header names barcode, date_collected, component
and volume. Rows go through normal intake: barcodes already stocked as the
same component are skipped and unknown components are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(cmd.Context(), config.Load())
			if err != nil {
				return err
			}
			defer env.Close()

			summary, err := seed.LoadUnitsFile(cmd.Context(), store.NewUnitStore(env.db), env.log, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted=%d duplicates=%d unknown=%d blank=%d malformed=%d\n",
				summary.Inserted, summary.Duplicates, summary.Unknown, summary.Blank, summary.Malformed)
			return nil
		},
	}
}

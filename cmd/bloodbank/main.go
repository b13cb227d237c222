// Package main provides the bloodbank binary: the inventory web server plus
// the account and import commands that operate on the same database.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bloodbank",
		Short: "Blood bank inventory server",
		Long: `bloodbank logs barcoded blood component units (PRBC, PC, PLASMA, WB, CRYO),
looks them up by barcode and records blood type and screening results.

Configuration is read from the environment (and a .env file if present).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(serveCmd(), accountsCmd(), importCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bloodbank version %s\n", Version)
		},
	})
	return cmd
}

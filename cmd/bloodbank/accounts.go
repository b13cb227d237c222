package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bloodbank/m/internal/config"
	"bloodbank/m/internal/store"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage staff login accounts",
	}

	var username, password string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an account or replace its password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			env, err := bootstrap(cmd.Context(), config.Load())
			if err != nil {
				return err
			}
			defer env.Close()

			if err := store.NewAccountStore(env.db).SetPassword(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %q saved\n", username)
			return nil
		},
	}
	add.Flags().StringVarP(&username, "username", "u", "", "Account username")
	add.Flags().StringVarP(&password, "password", "p", "", "Account password")

	cmd.AddCommand(add)
	return cmd
}

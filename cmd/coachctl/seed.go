package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fitcoach/setup"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write a sample schedule, workout log, measurements and fast for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		cfg, err := setup.Load()
		if err != nil {
			return err
		}
		store, err := setup.NewStore(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		if err := setup.Seed(cmd.Context(), store, userID, time.Now()); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Seeded sample data for %s in the %s store\n", userID, cfg.Store.Backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

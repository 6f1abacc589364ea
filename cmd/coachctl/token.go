package main

import (
	"fmt"

	"github.com/joeshaw/envdecode"
	"github.com/spf13/cobra"

	"fitcoach"
	"fitcoach/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the chat API",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		var cfg fitcoach.ServerConfig
		if err := envdecode.Decode(&cfg); err != nil {
			return fmt.Errorf("decode server config: %w", err)
		}
		signer, err := auth.NewSigner(cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			return err
		}

		token, err := signer.Issue(userID, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().Duration("ttl", auth.DefaultTTL, "Token lifetime")
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "coachctl",
	Short: "coachctl runs the fitness coaching agents locally",
	Long: `coachctl chats with the coaching specialists, serves the chat API, seeds
sample user data and issues API tokens. Configuration comes from the same
environment variables the Lambda uses.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Dump full replies and config")
	rootCmd.PersistentFlags().String("user", "demo", "User id to act as")
}

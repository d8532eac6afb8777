package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "assistant",
		Short:         "Relationship suggestion service: messages, event ideas, conversation starters and tips",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env file is fine; real environment variables still apply
			_ = godotenv.Load()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "assistant.yaml", "path to config file (defaults apply when absent)")

	root.AddCommand(
		newServeCmd(&configPath),
		newGenerateCmd(&configPath),
		newUsageCmd(&configPath),
		newCacheCmd(&configPath),
		newContactCmd(&configPath),
	)
	return root
}

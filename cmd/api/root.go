package main

import (
	"github.com/spf13/cobra"

	"github.com/chatkit/chat-backend/internal/config"
)

// envFiles lists the dotenv files loaded before reading the environment.
var envFiles []string

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "chat-backend",
		Short:        "Account and session backend for the chat frontend",
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv file(s) to load before reading the environment")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

func loadConfig() (*config.Config, error) {
	return config.Load(envFiles...)
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/veridian-id/veridian/internal/interfaces/cli/migrate"
	"github.com/veridian-id/veridian/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "veridian",
		Short: "Veridian - multi-method authentication service",
		Long:  `Veridian is an authentication service providing passkey, push, and one-time code flows with account recovery.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grovetools/nbremote/cmd"
	"github.com/grovetools/nbremote/cmd/config"
	"github.com/grovetools/nbremote/pkg/service"
)

var svc *service.Service

func main() {
	rootCmd := &cobra.Command{
		Use:          "nbremote",
		Short:        "A client for remote notebook server file trees",
		SilenceUsage: true,
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// This runs once before any subcommand
		config.InitConfig()

		var err error
		svc, err = config.InitService()
		if err != nil {
			return fmt.Errorf("failed to initialize service: %w", err)
		}
		return nil
	}

	// Add subcommands
	rootCmd.AddCommand(cmd.NewGetCmd(&svc))
	rootCmd.AddCommand(cmd.NewTreeCmd(&svc))
	rootCmd.AddCommand(cmd.NewRenameCmd(&svc))
	rootCmd.AddCommand(cmd.NewServersCmd(&svc))
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/mattsolo1/grove-core/cli"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-docfs/cmd"
	"github.com/mattsolo1/grove-docfs/cmd/config"
	"github.com/mattsolo1/grove-docfs/pkg/service"
)

var svc *service.Service

func main() {
	rootCmd := cli.NewStandardCommand(
		"docfs",
		"A folder tree of markdown documents kept in one local store",
	)

	rootCmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		// This runs once before any subcommand
		if c.Name() == "version" {
			return nil
		}
		if err := config.BindFlags(c); err != nil {
			return err
		}
		config.InitConfig()

		var err error
		svc, err = config.InitService(service.WithNotifier(cmd.NewNotifier(os.Stderr)))
		return err
	}
	rootCmd.PersistentPostRunE = func(c *cobra.Command, args []string) error {
		if svc == nil {
			return nil
		}
		return svc.Close()
	}

	// Add subcommands
	rootCmd.AddCommand(cmd.NewNewCmd(&svc))
	rootCmd.AddCommand(cmd.NewMkdirCmd(&svc))
	rootCmd.AddCommand(cmd.NewListCmd(&svc))
	rootCmd.AddCommand(cmd.NewFindCmd(&svc))
	rootCmd.AddCommand(cmd.NewMoveCmd(&svc))
	rootCmd.AddCommand(cmd.NewRenameCmd(&svc))
	rootCmd.AddCommand(cmd.NewRemoveCmd(&svc))
	rootCmd.AddCommand(cmd.NewOpenCmd(&svc))
	rootCmd.AddCommand(cmd.NewStatusCmd(&svc))
	rootCmd.AddCommand(cmd.NewCatCmd(&svc))
	rootCmd.AddCommand(cmd.NewWriteCmd(&svc))
	rootCmd.AddCommand(cmd.NewEditCmd(&svc))
	rootCmd.AddCommand(cmd.NewExportCmd(&svc))
	rootCmd.AddCommand(cmd.NewBackupCmd(&svc))
	rootCmd.AddCommand(cmd.NewRestoreCmd(&svc))
	rootCmd.AddCommand(cmd.NewCollapseCmd(&svc))
	rootCmd.AddCommand(cmd.NewSearchCmd(&svc))
	rootCmd.AddCommand(cmd.NewDoctorCmd(&svc))
	rootCmd.AddCommand(cmd.NewSidebarCmd(&svc))
	rootCmd.AddCommand(cmd.NewVersionCmd())

	for _, sub := range rootCmd.Commands() {
		config.AddGlobalFlags(sub)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

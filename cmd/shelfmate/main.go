package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelfmate/core/cmd/shelfmate/commands"
)

// @title Shelfmate API
// @version 1.0
// @description Book catalog with filtering, search and pagination

// @host localhost:8080
// @BasePath /api/v1

func main() {
	rootCmd := &cobra.Command{
		Use:           "shelfmate",
		Short:         "Shelfmate book catalog",
		Long:          `Shelfmate keeps a small library catalog: add, edit and remove books, filter them by genre and availability, search by title or author, and browse page by page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewBooksCommand())
	rootCmd.AddCommand(commands.NewSnapshotCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}

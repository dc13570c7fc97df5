package main

import (
	"context"
	"fmt"
	"os"

	"testdesk/internal/config"
	"testdesk/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "testdesk",
		Short:         "Import scenario workbooks into the test plan database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env is normal outside development.
			_ = godotenv.Load()
		},
	}

	rootCmd.AddCommand(
		newImportCmd(),
		newImportCSVCmd(),
		newExtractCmd(),
		newProjectsCmd(),
		newScenariosCmd(),
		newHistoryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadContainer builds a container from the environment without touching
// the database. adjust may override loaded settings.
func loadContainer(adjust func(*config.Config)) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(cfg)
	}
	return container.New(cfg)
}

// openContainer builds a container and connects it to the migrated
// database. Callers must Shutdown the result.
func openContainer(ctx context.Context, adjust func(*config.Config)) (*container.Container, error) {
	c, err := loadContainer(adjust)
	if err != nil {
		return nil, err
	}
	if err := c.Open(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

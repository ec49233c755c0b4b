package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger(cmd)

		repo, err := openRepository(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		applied, err := repo.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if len(applied) == 0 {
			logger.Info("schema is up to date")
			return nil
		}
		for _, version := range applied {
			logger.Info("migration applied", "version", version)
		}
		return nil
	},
}

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tomotachi/backend/internal/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the store schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			backend, err := database.OpenBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer backend.Close(cmd.Context())

			if err := backend.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info("Migration completed", zap.String("driver", cfg.StoreDriver))
			return nil
		},
	}
}

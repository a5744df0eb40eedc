package cmd

import (
	"example.com/backstage/services/picking/internal/database"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DB.DSN == memoryDSN {
			log.Info().Msg("In-memory repository needs no migrations")
			return nil
		}

		db, err := database.Connect(cfg.DB, nil)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		log.Info().Msg("Running database migrations")
		if err := database.Migrate(db); err != nil {
			return errors.Wrap(err, "failed to run database migrations")
		}

		log.Info().Msg("Database migrations completed successfully")
		return nil
	},
}

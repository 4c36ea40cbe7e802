package main

import (
	"istasyon-backend/internal/config"
	"istasyon-backend/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Yalnızca veritabanı şemasını uygular",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			return database.Migrate(db)
		},
	}
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/d60-Lab/yatube/pkg/logger"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(*cobra.Command, []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()
			_, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			closeDB()
			logger.Info("migration complete")
			return nil
		},
	}
}

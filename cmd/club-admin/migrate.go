package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sportsreelstechnical/version-1-sub001/internal/config"
	"github.com/sportsreelstechnical/version-1-sub001/internal/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции БД и выйти",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("загрузка конфигурации: %w", err)
			}
			return database.Migrate(cfg, config.SetupLogger(cfg))
		},
	}
}

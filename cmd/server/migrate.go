package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/woimport/internal/store/migrations"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		if migrateDown {
			slog.Info("rolling back last migration")
			return migrations.Down(ctx, pool)
		}
		if err := migrations.Up(ctx, pool); err != nil {
			return err
		}
		return migrations.Status(ctx, pool)
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "Roll back the most recent migration instead")
}

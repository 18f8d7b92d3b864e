package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:          "woimport",
	Short:        "Scheduled work order file imports",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadEnvFile()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file; values overwrite the environment")
}

// loadEnvFile loads the .env file if it exists (Overload overwrites existing env vars).
func loadEnvFile() {
	if err := godotenv.Overload(envFile); err != nil {
		slog.Info("no .env file found, using environment variables", "path", envFile)
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)", "path", envFile)
	}
}

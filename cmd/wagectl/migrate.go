package main

import (
	"go-wages/internal/shared/migration"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return migration.Migrate(dbConfig().URL(), viper.GetInt("target-version"), zap.L())
	},
}

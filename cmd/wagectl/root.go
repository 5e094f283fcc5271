package main

import (
	"database/sql"
	"fmt"
	"strings"

	"go-wages/internal/shared/apperror"
	"go-wages/internal/shared/connection"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:          "wagectl",
	Short:        "Bulk upload, summarize and export UC wage partitions",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var (
			logger *zap.Logger
			err    error
		)
		if viper.GetBool("verbose") {
			logger, err = zap.NewDevelopment()
		} else {
			cfg := zap.NewProductionConfig()
			cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
			logger, err = cfg.Build()
		}
		if err != nil {
			return err
		}
		zap.ReplaceGlobals(logger)
		apperror.Init()
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(uploadCmd, summarizeCmd, migrateCmd, exportCmd)

	rootCmd.PersistentFlags().String("db-host", "localhost", "Postgres host")
	rootCmd.PersistentFlags().String("db-port", "5432", "Postgres port")
	rootCmd.PersistentFlags().String("db-user", "postgres", "Postgres user")
	rootCmd.PersistentFlags().String("db-password", "", "Postgres password")
	rootCmd.PersistentFlags().String("db-name", "wages", "Postgres database")
	rootCmd.PersistentFlags().String("db-sslmode", "disable", "Postgres sslmode")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log at debug level")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(fmt.Sprintf("bind root flags: %v", err))
	}

	uploadCmd.Flags().IntP("workers", "w", 4, "Files ingested concurrently")
	uploadCmd.Flags().Int("chunk-size", 1000, "Records per upsert batch")
	uploadCmd.Flags().String("location", "", "Location for files that omit it")
	uploadCmd.Flags().Int("year", 0, "Year for files that omit it")
	uploadCmd.Flags().Bool("regenerate", true, "Regenerate analysis for every completed partition")
	uploadCmd.Flags().Int("top-n", 20, "Titles kept in the title analysis")
	if err := viper.BindPFlags(uploadCmd.Flags()); err != nil {
		panic(fmt.Sprintf("bind upload flags: %v", err))
	}

	summarizeCmd.Flags().Int("top-n", 20, "Titles kept in the title analysis")

	migrateCmd.Flags().Int("target-version", -1, "Target version (-1 latest, 0 rolls everything back)")
	if err := viper.BindPFlags(migrateCmd.Flags()); err != nil {
		panic(fmt.Sprintf("bind migrate flags: %v", err))
	}
}

func initConfig() {
	viper.SetEnvPrefix("WAGES")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func dbConfig() connection.DBConfig {
	return connection.DBConfig{
		Host:     viper.GetString("db-host"),
		Port:     viper.GetString("db-port"),
		User:     viper.GetString("db-user"),
		Password: viper.GetString("db-password"),
		Name:     viper.GetString("db-name"),
		SSLMode:  viper.GetString("db-sslmode"),
	}
}

func openDB() (*gorm.DB, *sql.DB, error) {
	gormDB, err := connection.ConnectGORMWithRetry(dbConfig(), 3)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}
	return gormDB, sqlDB, nil
}

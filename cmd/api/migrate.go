package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	gormlogger "gorm.io/gorm/logger"

	"localmart/internal/adapter/repository"
	"localmart/internal/infrastructure/database"
	"localmart/pkg/logger"
)

func NewMigrateCommand() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Creates or updates the PostgreSQL schema for the postgres store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dsn == "" {
				dsn = cfg.DatabaseURL
			}

			db, err := database.NewPostgres(dsn, gormlogger.Info)
			if err != nil {
				return errors.WithMessage(err, "could not connect to db")
			}

			if err := repository.AutoMigrate(db); err != nil {
				return errors.WithMessage(err, "could not migrate db")
			}

			logger.Info("Database schema is up to date")
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "database-url", "", "PostgreSQL DSN (defaults to DATABASE_URL)")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crmd/crmd/internal/config"
	"github.com/crmd/crmd/internal/observability/logger"
	"github.com/crmd/crmd/internal/store/postgres"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "crmd",
	Short: "CRM customer backend",
	Long: `crmd serves a small HTTP API for creating, listing, updating
and deleting customer records stored in PostgreSQL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger.InitLogger(logger.Config{
			Level:       cfg.Observability.LogLevel,
			Format:      cfg.Observability.LogFormat,
			ServiceName: cfg.Observability.ServiceName,
		})
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), cfg)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Create the schema if needed and start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the customers table if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context(), cfg)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "crmd %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "crmd.yaml", "config file path (optional)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

func runMigrate(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.New(ctx, databaseConfig(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	slog.InfoContext(ctx, "schema is up to date",
		logger.Component("migrate"),
		logger.Database(cfg.Database.Database),
	)
	return nil
}

func databaseConfig(cfg *config.Config) postgres.Config {
	return postgres.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/DukeRupert/treadline/internal"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the session store schema",
		Long: `Apply the Postgres schema used when SESSION_STORE=postgres.

serve applies the schema on start-up as well; migrate exists for
deployments that run migrations as a separate release step.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := internal.NewConfig()
			if err != nil {
				return fmt.Errorf("config initialization failed: %w", err)
			}
			if cfg.DatabaseUrl == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			db, err := sql.Open("pgx", cfg.DatabaseUrl)
			if err != nil {
				return fmt.Errorf("database connection failed: %w", err)
			}
			defer db.Close()

			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("database ping failed: %w", err)
			}

			if status {
				return internal.MigrationStatus(ctx, db)
			}
			if err := internal.RunMigrations(ctx, db); err != nil {
				return err
			}
			logger.Info("Session schema up to date")
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "Print migration status instead of applying")

	return cmd
}

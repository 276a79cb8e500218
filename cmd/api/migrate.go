package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/infra/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the contacts, leads and attribution tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		return runMigrations(cmd.Context(), env)
	},
}

func runMigrations(ctx context.Context, env *appEnv) error {
	if err := database.Migrate(ctx, env.Pool); err != nil {
		return err
	}
	zap.L().Info("schema applied")
	return nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

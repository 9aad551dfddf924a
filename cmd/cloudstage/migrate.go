package main

import (
	"context"
	"fmt"

	"github.com/smallbiznis/cloudstage/internal/migration"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func migrateCmd() *cobra.Command {
	var rollback int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply the embedded postgres migrations.

Examples:
  cloudstage migrate
  cloudstage migrate --rollback 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var conn *gorm.DB
			return runOneShot(cmd.Context(), func(ctx context.Context) error {
				sqlDB, err := conn.DB()
				if err != nil {
					return err
				}
				if rollback > 0 {
					if err := migration.Rollback(sqlDB, rollback); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", rollback)
					return nil
				}
				if err := migration.RunMigrations(sqlDB); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			}, &conn)
		},
	}

	cmd.Flags().IntVar(&rollback, "rollback", 0, "revert this many migrations instead of applying")
	return cmd
}

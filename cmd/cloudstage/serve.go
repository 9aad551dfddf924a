package main

import (
	"github.com/smallbiznis/cloudstage/internal/migration"
	"github.com/smallbiznis/cloudstage/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func serveCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			options := []fx.Option{coreModules()}
			if !skipMigrations {
				options = append(options, migration.Module)
			}
			options = append(options, server.Module)

			app := fx.New(options...)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply database migrations on startup")
	return cmd
}

package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/writequeue/cmd/app/commands"
	"github.com/allisson/writequeue/internal/app"
	"github.com/allisson/writequeue/internal/config"
	"github.com/allisson/writequeue/internal/database"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server and the background drain worker",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations on the local queue database",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), database.Config{
					Driver:             cfg.QueueDBDriver,
					ConnectionString:   cfg.QueueDBConnectionString,
					MaxOpenConnections: cfg.QueueDBMaxOpenConnections,
					MaxIdleConnections: cfg.QueueDBMaxIdleConnections,
					ConnMaxLifetime:    cfg.QueueDBConnMaxLifetime,
				})
			},
		},
	}
}

package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/writequeue/cmd/app/commands"
	"github.com/allisson/writequeue/internal/app"
	"github.com/allisson/writequeue/internal/config"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func getQueueCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "drain",
			Usage: "Replay pending writes to the remote store once",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   0,
					Usage:   "Maximum number of operations to replay (0 uses QUEUE_DRAIN_BATCH_SIZE)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				writeQueueUseCase, err := container.WriteQueueUseCase()
				if err != nil {
					return err
				}

				limit := int(cmd.Int("limit"))
				if limit == 0 {
					limit = cfg.QueueDrainBatchSize
				}

				return commands.RunDrain(
					ctx,
					writeQueueUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					limit,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "queue-stats",
			Usage: "Show the number of pending operations and dead letters",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				writeQueueUseCase, err := container.WriteQueueUseCase()
				if err != nil {
					return err
				}

				return commands.RunQueueStats(
					ctx,
					writeQueueUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "list-dead-letters",
			Usage: "List operations that were given up on",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "offset",
					Aliases: []string{"o"},
					Value:   0,
					Usage:   "Number of dead letters to skip",
				},
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   50,
					Usage:   "Maximum number of dead letters to list",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				writeQueueUseCase, err := container.WriteQueueUseCase()
				if err != nil {
					return err
				}

				return commands.RunListDeadLetters(
					ctx,
					writeQueueUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("offset")),
					int(cmd.Int("limit")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "requeue-dead-letter",
			Usage: "Append a dead letter to the tail of the pending log",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Dead letter ID (UUID)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				writeQueueUseCase, err := container.WriteQueueUseCase()
				if err != nil {
					return err
				}

				return commands.RunRequeueDeadLetter(
					ctx,
					writeQueueUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("format"),
				)
			},
		},
	}
}

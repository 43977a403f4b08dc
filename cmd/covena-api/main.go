package main

import (
	"context"
	"os"

	"github.com/covena/covena/pkg/cmd"
	"github.com/covena/covena/pkg/log"
	"github.com/covena/covena/pkg/orchestrator"
	"github.com/covena/covena/pkg/otelhelper"
	"github.com/covena/covena/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9080

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "covena-api",
		Usage:                 "Submit and manage architectural-change requests",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Storage URL (memory:// or file://<root>)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringSliceFlag{
				Name:     "board-member",
				Usage:    "Board member id, repeat once per member",
				Required: true,
				Sources:  cli.EnvVars("BOARD_MEMBERS"),
			},
			&cli.IntFlag{
				Name:    "required-neighbor-approvals",
				Usage:   "Distinct approving neighbors needed to reach board voting",
				Value:   3,
				Sources: cli.EnvVars("REQUIRED_NEIGHBOR_APPROVALS"),
			},
			&cli.StringFlag{
				Name:    "sweep-cron",
				Usage:   "Cron expression for the periodic re-evaluation sweep",
				Value:   "* * * * *",
				Sources: cli.EnvVars("SWEEP_CRON"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Covena API")

			// Installs the global tracer provider the orchestrator spans use.
			if _, err := otelhelper.NewTracer(ctx, "covena-api"); err != nil {
				return err
			}

			persistence := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			engine := workflow.NewEngine(workflow.Config{
				RequiredNeighborApprovals: command.Int("required-neighbor-approvals"),
				BoardMembers:              command.StringSlice("board-member"),
			})

			orc := orchestrator.New(logger, persistence, engine, eventBus)

			sweeper, err := orchestrator.NewSweeper(orc, command.String("sweep-cron"))
			if err != nil {
				return err
			}

			go func() {
				if err := sweeper.Run(ctx); err != nil && ctx.Err() == nil {
					logger.ErrorContext(ctx, "Sweeper stopped", "error", err)
				}
			}()

			api := NewAPI(logger, orc, persistence)

			return api.Start(command.Int("port"))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

package main

import (
	"context"
	"os"

	"github.com/covena/covena/pkg/cmd"
	"github.com/covena/covena/pkg/log"
	"github.com/covena/covena/pkg/notification"
	"github.com/covena/covena/pkg/otelhelper"
	redis "github.com/redis/go-redis/v9"
	cli "github.com/urfave/cli/v3"
)

func main() {
	logger := log.WithModule("notifier")

	command := &cli.Command{
		Name:                  "covena-notifier",
		Usage:                 "Compose and deliver notifications for request lifecycle events",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "gateway",
				Usage:   "Delivery gateway (log, redis)",
				Value:   "log",
				Sources: cli.EnvVars("NOTIFICATION_GATEWAY"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis connection URL for the redis gateway",
				Value:   "redis://localhost:6379",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "notification-queue",
				Usage:   "Redis list the external sender consumes",
				Value:   "covena.notifications",
				Sources: cli.EnvVars("NOTIFICATION_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "manager-recipient",
				Usage:   "Recipient id for management-facing notifications",
				Sources: cli.EnvVars("MANAGER_RECIPIENT"),
			},
			&cli.StringSliceFlag{
				Name:    "board-member",
				Usage:   "Board member id, repeat once per member",
				Sources: cli.EnvVars("BOARD_MEMBERS"),
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

			logger.InfoContext(ctx, "Initializing Covena notifier")

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			gateway, err := newGateway(command)
			if err != nil {
				return err
			}

			tracer, err := otelhelper.NewTracer(ctx, "covena-notifier")
			if err != nil {
				return err
			}

			dispatcher := notification.NewDispatcher(
				notification.Composer{
					ManagerRecipient: command.String("manager-recipient"),
					BoardMembers:     command.StringSlice("board-member"),
				},
				gateway,
				logger,
			)

			notifier := NewNotifier(logger, eventBus, dispatcher, tracer)

			return notifier.Run(ctx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}

func newGateway(command *cli.Command) (notification.Gateway, error) {
	logger := log.WithModule("notifier")

	switch command.String("gateway") {
	case "redis":
		opts, err := redis.ParseURL(command.String("redis-url"))
		if err != nil {
			return nil, err
		}

		client := redis.NewClient(opts)

		return notification.NewRedisGateway(client, command.String("notification-queue"), logger), nil
	default:
		return notification.NewLogGateway(logger), nil
	}
}

// Package main provides the Covena API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/covena/covena/pkg/orchestrator"
	"github.com/covena/covena/pkg/persistence"
	"github.com/covena/covena/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger       *slog.Logger
	orchestrator *orchestrator.Orchestrator
	persistence  persistence.Persistence
	validate     *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	orc *orchestrator.Orchestrator,
	persistence persistence.Persistence,
) *API {
	return &API{
		logger:       logger,
		orchestrator: orc,
		persistence:  persistence,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.orchestrator, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Covena API")
	})

	r := app.Group("/requests")
	r.Post("/", handlers.SubmitRequest)
	r.Get("/", handlers.ListRequests)
	r.Get("/:id", handlers.GetRequest)
	r.Delete("/:id", handlers.DeleteRequest)
	r.Post("/:id/cancel", handlers.CancelRequest)

	// Lifecycle mutations:
	r.Post("/:id/review", handlers.OpenReview)
	r.Post("/:id/review/complete", handlers.CompleteReview)
	r.Post("/:id/review/request-info", handlers.RequestInfo)
	r.Post("/:id/reply", handlers.Reply)
	r.Post("/:id/approvals", handlers.RecordNeighborApproval)
	r.Post("/:id/votes", handlers.RecordBoardVote)
	r.Post("/:id/complete", handlers.CompleteWork)
	r.Post("/:id/appeal", handlers.FileAppeal)

	app.Get("/health", func(c fiber.Ctx) error {
		if err := a.persistence.HealthCheck(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}

		return c.JSON(fiber.Map{"status": "healthy"})
	})

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}

package router

import (
	"github.com/Possessed66/BotLMKRD/internal/handler"
	"github.com/Possessed66/BotLMKRD/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func New(h *handler.API, apiKey string) *fiber.App {
	app := fiber.New(fiber.Config{})
	app.Use(cors.New())
	app.Use(recover.New())
	setupRouter(app, h, apiKey)
	return app
}

func setupRouter(fiberApp *fiber.App, h *handler.API, apiKey string) {
	api := fiberApp.Group("/api", logger.New())

	api.Get("/test.json", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": true, "message": "Pong"})
	})

	// Orders
	api.Post("/orders", h.SubmitOrder)

	// Approver decisions
	api.Post("/approvals/:id/approve", h.ApproveRequest)
	api.Post("/approvals/:id/reject", h.RejectRequest)
	api.Post("/approvals/reason", h.RejectReason)
	api.Get("/approvals/:id", h.GetRequest)

	// Requester push tokens
	api.Post("/device_token", h.CreateDeviceToken)

	// Operator surface
	ops := api.Group("/", middleware.APIKeyAuth(apiKey))
	ops.Get("/queue/stats", h.QueueStats)
	ops.Post("/maintenance", h.SetMaintenance)
}

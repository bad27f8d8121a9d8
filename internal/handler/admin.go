package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// QueueStats returns per-status counts plus the live backlog depth.
func (a *API) QueueStats(c *fiber.Ctx) error {
	stats, err := a.Queue.Stats(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": false, "error": err.Error()})
	}
	depth, err := a.Queue.Depth(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": true, "data": stats, "depth": depth, "worker_running": a.Runtime.WorkerRunning()})
}

type maintenanceRequest struct {
	Enabled bool `json:"enabled"`
}

func (a *API) SetMaintenance(c *fiber.Ctx) error {
	var req maintenanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "invalid request body"})
	}
	a.Runtime.SetMaintenance(req.Enabled)
	logrus.WithField("enabled", req.Enabled).Info("Maintenance mode changed")
	return c.JSON(fiber.Map{"status": true, "maintenance": req.Enabled})
}

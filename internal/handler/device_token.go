package handler

import (
	"github.com/Possessed66/BotLMKRD/internal/model"

	"github.com/gofiber/fiber/v2"
)

func (a *API) CreateDeviceToken(c *fiber.Ctx) error {
	var input struct {
		UserID      int64  `json:"user_id"`
		DeviceToken string `json:"device_token"`
		DeviceType  string `json:"device_type"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.JSON(fiber.Map{"status": false, "message": "Review your input"})
	}

	deviceToken := model.DeviceToken{
		UserID:      input.UserID,
		DeviceToken: input.DeviceToken,
		DeviceType:  input.DeviceType,
	}
	if err := a.Tokens.Create(c.UserContext(), deviceToken); err != nil {
		return c.JSON(fiber.Map{"status": false, "message": "Can not create token device", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": true, "message": "Create token device successfully"})
}

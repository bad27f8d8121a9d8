package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/Possessed66/BotLMKRD/internal/approval"
	"github.com/Possessed66/BotLMKRD/internal/model"
	"github.com/Possessed66/BotLMKRD/internal/session"
	"github.com/Possessed66/BotLMKRD/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type SubmitOrderRequest struct {
	UserID   int64           `json:"user_id"`
	Username string          `json:"username"`
	Context  session.Context `json:"context"`
}

// SubmitOrder is the decision point of a finalized order: it either passes
// the approval gate straight into the queue, or comes back suspended behind
// a pending request.
func (a *API) SubmitOrder(c *fiber.Ctx) error {
	if a.Runtime.Maintenance() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": false, "error": "service is in maintenance mode"})
	}

	var req SubmitOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "invalid request body"})
	}
	if req.UserID == 0 || req.Context.ItemRef == "" || req.Context.Location == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "user_id, item_ref and location are required"})
	}

	sess := session.Session{Step: session.StepConfirm, Context: req.Context}

	state, err := a.Gate.Review(c.UserContext(), req.UserID, req.Username, sess)
	if err != nil {
		if errors.Is(err, approval.ErrNoApprover) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"status": false,
				"error":  fmt.Sprintf("no approver configured for department %s", req.Context.Department),
			})
		}
		logrus.WithError(err).WithField("user_id", req.UserID).Error("Approval gate failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": false, "error": "failed to process order"})
	}

	if state.Kind == session.KindSuspended {
		return c.JSON(fiber.Map{
			"status":     true,
			"state":      "pending_approval",
			"request_id": state.AwaitingRequest,
		})
	}

	payload := model.OrderPayload{
		Version:       model.OrderPayloadVersion,
		ItemRef:       req.Context.ItemRef,
		Location:      req.Context.Location,
		ItemName:      req.Context.ItemName,
		Supplier:      req.Context.Supplier,
		Department:    req.Context.Department,
		Quantity:      req.Context.Quantity,
		Reason:        req.Context.Reason,
		RequesterName: req.Context.RequesterName,
		RequesterRole: req.Context.RequesterRole,
		OrderedAt:     time.Now(),
	}
	raw, err := payload.Marshal()
	if err != nil {
		logrus.WithError(err).WithField("user_id", req.UserID).Error("Failed to build order payload")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": false, "error": "failed to build order payload"})
	}

	entry, err := a.Queue.Enqueue(c.UserContext(), req.UserID, raw)
	if err != nil {
		if errors.Is(err, store.ErrQueueFull) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"status": false, "error": "order queue is full, try again later"})
		}
		// A failed enqueue means the order is recorded nowhere. Raise the
		// alarm right here, this is not allowed to pass quietly.
		a.Ops.Escalate(c.UserContext(), fmt.Sprintf(
			"🚨 Failed to enqueue an order!\n• User: %d\n• Item: %s\n• Location: %s\n• Error: %s",
			req.UserID, req.Context.ItemRef, req.Context.Location, err.Error(),
		))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": false, "error": "failed to record order"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":   true,
		"state":    "queued",
		"entry_id": entry.ID,
	})
}

package handler

import (
	"errors"

	"github.com/Possessed66/BotLMKRD/internal/approval"
	"github.com/Possessed66/BotLMKRD/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type decisionRequest struct {
	ActorID int64 `json:"actor_id"`
}

type reasonRequest struct {
	ActorID int64  `json:"actor_id"`
	Reason  string `json:"reason"`
}

func (a *API) ApproveRequest(c *fiber.Ctx) error {
	requestID := c.Params("id")
	var req decisionRequest
	if err := c.BodyParser(&req); err != nil || req.ActorID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "actor_id is required"})
	}

	if err := a.Ctrl.Approve(c.UserContext(), requestID, req.ActorID); err != nil {
		return a.decisionError(c, requestID, err)
	}
	return c.JSON(fiber.Map{"status": true, "message": "order approved, requester notified"})
}

// RejectRequest opens the reject path; the decision is not final until a
// reason arrives via RejectReason.
func (a *API) RejectRequest(c *fiber.Ctx) error {
	requestID := c.Params("id")
	var req decisionRequest
	if err := c.BodyParser(&req); err != nil || req.ActorID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "actor_id is required"})
	}

	if err := a.Ctrl.BeginReject(c.UserContext(), requestID, req.ActorID); err != nil {
		return a.decisionError(c, requestID, err)
	}
	return c.JSON(fiber.Map{"status": true, "message": "send the rejection reason to finalize"})
}

func (a *API) RejectReason(c *fiber.Ctx) error {
	var req reasonRequest
	if err := c.BodyParser(&req); err != nil || req.ActorID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "actor_id is required"})
	}

	err := a.Ctrl.SubmitReason(c.UserContext(), req.ActorID, req.Reason)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"status": true, "message": "rejection recorded, requester notified"})
	case errors.Is(err, approval.ErrEmptyReason):
		// Parked state is untouched; the approver just gets asked again.
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": false, "error": "reason must not be empty, please send the rejection reason"})
	case errors.Is(err, approval.ErrNoPendingRejection):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"status": false, "error": "no rejection in progress for this approver"})
	default:
		return a.decisionError(c, "", err)
	}
}

func (a *API) GetRequest(c *fiber.Ctx) error {
	req, err := a.Requests.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": false, "error": "request not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": true, "data": req})
}

func (a *API) decisionError(c *fiber.Ctx, requestID string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": false, "error": "request not found"})
	case errors.Is(err, approval.ErrNotAuthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"status": false, "error": "this request is assigned to a different approver"})
	case errors.Is(err, store.ErrAlreadyDecided):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"status": false, "error": "request already decided"})
	default:
		logrus.WithError(err).WithField("request_id", requestID).Error("Decision handling failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": false, "error": "failed to process decision"})
	}
}

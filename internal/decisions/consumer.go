// Package decisions feeds asynchronously arriving approver decisions into
// the resume controller.
package decisions

import (
	"context"
	"errors"
	"fmt"

	"github.com/Possessed66/BotLMKRD/internal/approval"
	"github.com/Possessed66/BotLMKRD/internal/store"
	"github.com/Possessed66/BotLMKRD/lib/kafka"

	"github.com/sirupsen/logrus"
)

const Topic = "approval_decisions"

// Decision is the wire form of an approver's choice.
type Decision struct {
	RequestID string `json:"request_id"`
	ActorID   int64  `json:"actor_id"`
	Action    string `json:"action"` // approve | reject
	Reason    string `json:"reason,omitempty"`
}

// Consumer drains the decision topic into the controller.
type Consumer struct {
	worker *kafka.Worker[Decision]
}

func NewConsumer(cfg kafka.Config, ctrl *approval.Controller) *Consumer {
	handler := func(ctx context.Context, msg kafka.Message[Decision]) error {
		return apply(ctx, ctrl, msg.Value)
	}
	return &Consumer{
		worker: kafka.NewWorker(cfg, "approval-decisions-group", []string{Topic}, 1, handler),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	logrus.WithField("topic", Topic).Info("Approval decision consumer started")
	return c.worker.Run(ctx)
}

func (c *Consumer) Close() error { return c.worker.Close() }

// apply routes a decision. Guard outcomes (unknown request, wrong actor,
// stale duplicate) are final: retrying the message would change nothing, so
// they are logged and committed rather than returned.
func apply(ctx context.Context, ctrl *approval.Controller, d Decision) error {
	var err error
	switch d.Action {
	case "approve":
		err = ctrl.Approve(ctx, d.RequestID, d.ActorID)
	case "reject":
		err = ctrl.Reject(ctx, d.RequestID, d.ActorID, d.Reason)
	default:
		logrus.WithField("action", d.Action).Warn("Unknown decision action, skipping")
		return nil
	}

	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrAlreadyDecided) ||
		errors.Is(err, approval.ErrNotAuthorized) ||
		errors.Is(err, approval.ErrEmptyReason) {
		logrus.WithError(err).WithFields(logrus.Fields{
			"request_id": d.RequestID,
			"actor_id":   d.ActorID,
		}).Warn("Decision dropped")
		return nil
	}
	return fmt.Errorf("apply decision for request %s: %w", d.RequestID, err)
}

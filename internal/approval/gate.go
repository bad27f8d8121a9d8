package approval

import (
	"context"
	"fmt"

	"github.com/Possessed66/BotLMKRD/internal/model"
	"github.com/Possessed66/BotLMKRD/internal/notify"
	"github.com/Possessed66/BotLMKRD/internal/session"
	"github.com/Possessed66/BotLMKRD/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Gate decides whether an order may proceed to the queue directly or must
// first be signed off by the department's manager.
type Gate struct {
	requests  *store.RequestStore
	directory Directory
	channel   notify.Channel
}

func NewGate(requests *store.RequestStore, directory Directory, channel notify.Channel) *Gate {
	return &Gate{requests: requests, directory: directory, channel: channel}
}

// Review is the decision point. For an unrestricted order it returns the
// session still running and the caller proceeds to enqueue. For a restricted
// one it freezes the session into a new pending request, notifies the
// approver and returns the suspended state; from that moment the request row
// is the only carrier of the conversation.
func (g *Gate) Review(ctx context.Context, userID int64, username string, sess session.Session) (session.State, error) {
	if !sess.Context.RequiresApproval() {
		return session.Running(sess), nil
	}

	approver, err := g.directory.Resolve(ctx, sess.Context.Department)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"department": sess.Context.Department,
		}).Warn("Cannot route approval request")
		return session.State{}, err
	}

	snapshot, err := sess.Freeze()
	if err != nil {
		return session.State{}, fmt.Errorf("freeze session for approval: %w", err)
	}

	req := &model.ApprovalRequest{
		RequestID:    uuid.NewString(),
		UserID:       userID,
		ApproverID:   approver.ID,
		Department:   sess.Context.Department,
		ItemRef:      sess.Context.ItemRef,
		Location:     sess.Context.Location,
		ItemName:     sess.Context.ItemName,
		ItemSupplier: sess.Context.Supplier,
		Status:       model.RequestPending,
		Snapshot:     snapshot,
	}
	if err := g.requests.Create(ctx, req); err != nil {
		return session.State{}, err
	}

	ref, err := g.channel.Send(ctx, approver.ID, approverPrompt(req, username, sess.Context.Quantity),
		notify.Action{Label: "✅ Approve", Data: "approve:" + req.RequestID},
		notify.Action{Label: "❌ Reject", Data: "reject:" + req.RequestID},
	)
	if err != nil {
		// No notification means no one will ever decide this request;
		// remove it so the requester is not stuck behind a dead row.
		if derr := g.requests.Delete(ctx, req.RequestID); derr != nil {
			logrus.WithError(derr).WithField("request_id", req.RequestID).Error("Failed to roll back approval request after notify failure")
		}
		return session.State{}, fmt.Errorf("notify approver %d: %w", approver.ID, err)
	}

	if err := g.requests.SetApproverMessage(ctx, req.RequestID, ref); err != nil {
		// The request stays decidable, the approver message just cannot be
		// edited after the decision.
		logrus.WithError(err).WithField("request_id", req.RequestID).Warn("Failed to store approver message ref")
	}

	requesterText := fmt.Sprintf(
		"⚠️ Item %s is in the restricted assortment.\n"+
			"An approval request was sent to %s (department %s). "+
			"You will be notified once it is decided.",
		req.ItemRef, approver.FullName(), req.Department,
	)
	if _, err := g.channel.Send(ctx, userID, requesterText); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to notify requester about suspension")
	}

	return session.Suspended(req.RequestID), nil
}

func approverPrompt(req *model.ApprovalRequest, username string, quantity int) string {
	return fmt.Sprintf(
		"🚨 Approval needed: restricted item order\n"+
			"👤 User: @%s (ID: %d)\n"+
			"🏪 Location: %s\n"+
			"📦 Item: %s\n"+
			"🏷️ Name: %s\n"+
			"🔢 Quantity: %d\n"+
			"🏭 Supplier: %s\n"+
			"🔢 Department: %s\n\n"+
			"Request ID: %s",
		username, req.UserID, req.Location, req.ItemRef, req.ItemName,
		quantity, req.ItemSupplier, req.Department, req.RequestID,
	)
}

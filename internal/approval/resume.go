package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/Possessed66/BotLMKRD/internal/model"
	"github.com/Possessed66/BotLMKRD/internal/notify"
	"github.com/Possessed66/BotLMKRD/internal/session"
	"github.com/Possessed66/BotLMKRD/internal/store"

	"github.com/sirupsen/logrus"
)

// SessionHost re-hosts a restored session on the requester's side so the
// conversation continues at its next step.
type SessionHost interface {
	Reactivate(ctx context.Context, userID int64, sess session.Session) error
}

// Controller handles inbound approver decisions. The reject path parks the
// approver in a reason-pending state held in memory, keyed by approver id,
// the same lifetime the conversation state itself has.
type Controller struct {
	requests  *store.RequestStore
	directory Directory
	channel   notify.Channel
	host      SessionHost
	ops       notify.Escalator

	mu             sync.Mutex
	awaitingReason map[int64]string // approver id -> request id
}

func NewController(requests *store.RequestStore, directory Directory, channel notify.Channel, host SessionHost, ops notify.Escalator) *Controller {
	return &Controller{
		requests:       requests,
		directory:      directory,
		channel:        channel,
		host:           host,
		ops:            ops,
		awaitingReason: make(map[int64]string),
	}
}

// guard loads the request and applies the shared checks: existence,
// authorization, and idempotency. It never mutates state.
func (c *Controller) guard(ctx context.Context, requestID string, actorID int64) (*model.ApprovalRequest, error) {
	req, err := c.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ApproverID != actorID {
		return nil, ErrNotAuthorized
	}
	if req.Decided() {
		return req, store.ErrAlreadyDecided
	}
	return req, nil
}

// Approve finalizes the approve path: terminal status, approver message
// update, session resume, requester notice, and request row removal. A
// duplicate approval is a no-op reported as ErrAlreadyDecided.
func (c *Controller) Approve(ctx context.Context, requestID string, actorID int64) error {
	req, err := c.guard(ctx, requestID, actorID)
	if err != nil {
		return err
	}

	// The SQL guard decides the race between concurrent duplicates.
	if err := c.requests.Decide(ctx, requestID, model.RequestApproved, nil); err != nil {
		return err
	}

	c.editApproverMessage(ctx, req, "✅ Approved")

	sess, err := session.Restore(req.Snapshot)
	if err == nil {
		sess = sess.Advance()
		err = c.host.Reactivate(ctx, req.UserID, sess)
	}
	if err != nil {
		// The decision stands but the session is unrecoverable: drop the
		// request and hand the order context to an operator.
		if derr := c.requests.Delete(ctx, requestID); derr != nil {
			logrus.WithError(derr).WithField("request_id", requestID).Error("Failed to delete request after resume failure")
		}
		c.ops.Escalate(ctx, fmt.Sprintf(
			"🚨 Failed to resume an approved order!\n"+
				"• User: %d\n• Item: %s\n• Location: %s\n• Error: %s\n"+
				"Snapshot fragment: %s",
			req.UserID, req.ItemRef, req.Location, err.Error(), snapshotFragment(req.Snapshot),
		))
		return fmt.Errorf("resume session for request %s: %w", requestID, err)
	}

	requesterText := fmt.Sprintf(
		"✅ Your order of item %s (%s) for %s was approved.\n"+
			"Press the button below to continue.",
		req.ItemRef, req.ItemName, req.Location,
	)
	if _, err := c.channel.Send(ctx, req.UserID, requesterText,
		notify.Action{Label: "🔁 Continue order", Data: "continue_order:" + requestID},
	); err != nil {
		logrus.WithError(err).WithField("user_id", req.UserID).Warn("Failed to notify requester about approval")
	}

	// Pending phase is over; approvals are not kept for audit.
	if err := c.requests.Delete(ctx, requestID); err != nil {
		logrus.WithError(err).WithField("request_id", requestID).Error("Failed to delete approved request")
	}
	return nil
}

// BeginReject parks the approver in the reason-pending state and prompts for
// the free-text reason. The request itself is not mutated yet.
func (c *Controller) BeginReject(ctx context.Context, requestID string, actorID int64) error {
	req, err := c.guard(ctx, requestID, actorID)
	if err != nil {
		return err
	}

	c.editApproverMessage(ctx, req, "📝 Reply with the rejection reason:")

	c.mu.Lock()
	// The id may alias a caller-owned buffer (e.g. a fiber route param)
	// that is reused after the request; the parked state must own a copy.
	c.awaitingReason[actorID] = strings.Clone(requestID)
	c.mu.Unlock()
	return nil
}

// SubmitReason completes a rejection started with BeginReject. An empty
// reason changes nothing and the caller re-prompts; any other outcome clears
// the approver's parked state.
func (c *Controller) SubmitReason(ctx context.Context, actorID int64, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrEmptyReason
	}

	c.mu.Lock()
	requestID, ok := c.awaitingReason[actorID]
	if ok {
		delete(c.awaitingReason, actorID)
	}
	c.mu.Unlock()
	if !ok {
		return ErrNoPendingRejection
	}

	return c.reject(ctx, requestID, actorID, reason)
}

// Reject is the direct path used when the decision already carries a reason
// (asynchronous decision intake).
func (c *Controller) Reject(ctx context.Context, requestID string, actorID int64, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrEmptyReason
	}
	return c.reject(ctx, requestID, actorID, reason)
}

func (c *Controller) reject(ctx context.Context, requestID string, actorID int64, reason string) error {
	req, err := c.guard(ctx, requestID, actorID)
	if err != nil {
		return err
	}

	if err := c.requests.Decide(ctx, requestID, model.RequestRejected, &reason); err != nil {
		return err
	}

	c.editApproverMessage(ctx, req, "❌ Rejected: "+reason)

	approverName := "Manager of department " + req.Department
	if approver, derr := c.directory.Resolve(ctx, req.Department); derr == nil {
		approverName = approver.FullName()
	}

	requesterText := fmt.Sprintf(
		"❌ %s rejected your order of item %s for %s.\n"+
			"Item name: %s\n"+
			"Reason: %s",
		approverName, req.ItemRef, req.Location, req.ItemName, reason,
	)
	if _, err := c.channel.Send(ctx, req.UserID, requesterText); err != nil {
		logrus.WithError(err).WithField("user_id", req.UserID).Warn("Failed to notify requester about rejection")
	}

	// The rejected row stays behind for audit.
	return nil
}

// AwaitingReason reports whether an approver is parked in the reject path,
// and for which request.
func (c *Controller) AwaitingReason(actorID int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	requestID, ok := c.awaitingReason[actorID]
	return requestID, ok
}

func (c *Controller) editApproverMessage(ctx context.Context, req *model.ApprovalRequest, suffix string) {
	if len(req.ApproverMessage) == 0 {
		return
	}
	var ref notify.MessageRef
	if err := json.Unmarshal(req.ApproverMessage, &ref); err != nil {
		logrus.WithError(err).WithField("request_id", req.RequestID).Warn("Bad approver message ref")
		return
	}
	text := fmt.Sprintf("Approval request %s (item %s, %s)\n\n%s", req.RequestID, req.ItemRef, req.Location, suffix)
	if err := c.channel.Edit(ctx, ref, text); err != nil {
		logrus.WithError(err).WithField("request_id", req.RequestID).Warn("Failed to edit approver message")
	}
}

func snapshotFragment(snapshot []byte) string {
	const max = 300
	if len(snapshot) <= max {
		return string(snapshot)
	}
	return string(snapshot[:max]) + "..."
}

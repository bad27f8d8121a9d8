package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Escalator raises operator-facing alerts. Escalate must never fail the
// caller: an alert that cannot be delivered is logged and dropped.
type Escalator interface {
	Escalate(ctx context.Context, text string)
}

// Operators fans an escalation out to every configured admin identity.
type Operators struct {
	Channel  Channel
	AdminIDs []int64
}

func (o Operators) Escalate(ctx context.Context, text string) {
	if len(o.AdminIDs) == 0 {
		logrus.Warn("Escalation raised but no admin IDs configured")
		logrus.Error(text)
		return
	}
	for _, adminID := range o.AdminIDs {
		if _, err := o.Channel.Send(ctx, adminID, text); err != nil {
			logrus.WithError(err).WithField("admin_id", adminID).Error("Failed to deliver escalation")
		}
	}
}

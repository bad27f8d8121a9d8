// Package notify defines the messaging contract the order flow consumes.
// Concrete transports (Telegram, FCM) live under lib/.
package notify

import (
	"context"
	"fmt"
)

// Action is an inline affordance attached to a message (approve/reject
// buttons and the resume button).
type Action struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// MessageRef identifies a delivered message so it can later be edited.
type MessageRef struct {
	Chat      int64 `json:"chat"`
	MessageID int   `json:"message_id"`
}

func (r MessageRef) String() string {
	return fmt.Sprintf("%d:%d", r.Chat, r.MessageID)
}

// Channel delivers messages to a single identity and can rewrite a message
// it already delivered.
type Channel interface {
	Send(ctx context.Context, recipient int64, text string, actions ...Action) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, text string) error
}

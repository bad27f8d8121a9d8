package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Pusher sends a push notification to a set of device tokens.
type Pusher interface {
	Push(ctx context.Context, tokens []string, title, body string) error
}

// TokenSource resolves the active device tokens of a user.
type TokenSource interface {
	TokensFor(ctx context.Context, userID int64) ([]string, error)
}

// MirroredChannel wraps a Channel and additionally pushes each sent message
// to the recipient's registered devices. Push delivery is best effort; only
// the primary channel's outcome is reported to the caller.
type MirroredChannel struct {
	Channel
	Pusher Pusher
	Tokens TokenSource
	Title  string
}

func (m MirroredChannel) Send(ctx context.Context, recipient int64, text string, actions ...Action) (MessageRef, error) {
	ref, err := m.Channel.Send(ctx, recipient, text, actions...)
	if err != nil {
		return ref, err
	}

	tokens, terr := m.Tokens.TokensFor(ctx, recipient)
	if terr != nil {
		logrus.WithError(terr).WithField("user_id", recipient).Warn("Failed to load device tokens for push mirror")
		return ref, nil
	}
	if len(tokens) == 0 {
		return ref, nil
	}
	if perr := m.Pusher.Push(ctx, tokens, m.Title, text); perr != nil {
		logrus.WithError(perr).WithField("user_id", recipient).Warn("Push mirror delivery failed")
	}
	return ref, nil
}

package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

type Client struct {
	client *messaging.Client
}

// New initializes the Firebase Cloud Messaging client used to mirror order
// notices to the requester's devices.
func New(credentialsPath string) (*Client, error) {
	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %v", err)
	}

	messagingClient, err := app.Messaging(context.Background())
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %v", err)
	}

	logrus.Info("Firebase Cloud Messaging initialized successfully")
	return &Client{client: messagingClient}, nil
}

// Push sends one notification to a set of device tokens.
func (c *Client) Push(ctx context.Context, tokens []string, title, body string) error {
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	}
	resp, err := c.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return err
	}
	if resp.FailureCount > 0 {
		logrus.WithFields(logrus.Fields{
			"success": resp.SuccessCount,
			"failure": resp.FailureCount,
		}).Warn("Some FCM pushes failed")
	}
	return nil
}

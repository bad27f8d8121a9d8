package approval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/Possessed66/BotLMKRD/internal/model"
	"github.com/Possessed66/BotLMKRD/internal/notify"
	"github.com/Possessed66/BotLMKRD/internal/session"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	silent := logger.New(log.New(io.Discard, "", log.LstdFlags), logger.Config{LogLevel: logger.Silent})
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: silent})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.ApprovalRequest{}, &model.Approver{}))
	return db
}

type sentMessage struct {
	Recipient int64
	Text      string
	Actions   []notify.Action
}

type editedMessage struct {
	Ref  notify.MessageRef
	Text string
}

// fakeChannel records everything it delivers; SendErr makes Send fail.
type fakeChannel struct {
	Sent    []sentMessage
	Edited  []editedMessage
	SendErr error
	nextID  int
}

func (c *fakeChannel) Send(ctx context.Context, recipient int64, text string, actions ...notify.Action) (notify.MessageRef, error) {
	if c.SendErr != nil {
		return notify.MessageRef{}, c.SendErr
	}
	c.nextID++
	c.Sent = append(c.Sent, sentMessage{Recipient: recipient, Text: text, Actions: actions})
	return notify.MessageRef{Chat: recipient, MessageID: c.nextID}, nil
}

func (c *fakeChannel) Edit(ctx context.Context, ref notify.MessageRef, text string) error {
	c.Edited = append(c.Edited, editedMessage{Ref: ref, Text: text})
	return nil
}

func (c *fakeChannel) sentTo(recipient int64) []sentMessage {
	var out []sentMessage
	for _, m := range c.Sent {
		if m.Recipient == recipient {
			out = append(out, m)
		}
	}
	return out
}

type fakeDirectory struct {
	byDept map[string]Approver
}

func (d fakeDirectory) Resolve(ctx context.Context, department string) (*Approver, error) {
	a, ok := d.byDept[department]
	if !ok {
		return nil, ErrNoApprover
	}
	return &a, nil
}

type fakeHost struct {
	Reactivated []session.Session
	Users       []int64
	Err         error
}

func (h *fakeHost) Reactivate(ctx context.Context, userID int64, sess session.Session) error {
	if h.Err != nil {
		return h.Err
	}
	h.Users = append(h.Users, userID)
	h.Reactivated = append(h.Reactivated, sess)
	return nil
}

type fakeOps struct {
	Escalations []string
}

func (o *fakeOps) Escalate(ctx context.Context, text string) {
	o.Escalations = append(o.Escalations, text)
}

var errSendDown = errors.New("transport unavailable")

package decisions

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/Possessed66/BotLMKRD/internal/approval"
	"github.com/Possessed66/BotLMKRD/internal/model"
	"github.com/Possessed66/BotLMKRD/internal/notify"
	"github.com/Possessed66/BotLMKRD/internal/session"
	"github.com/Possessed66/BotLMKRD/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type nullChannel struct{}

func (nullChannel) Send(ctx context.Context, recipient int64, text string, actions ...notify.Action) (notify.MessageRef, error) {
	return notify.MessageRef{Chat: recipient, MessageID: 1}, nil
}

func (nullChannel) Edit(ctx context.Context, ref notify.MessageRef, text string) error { return nil }

type nullOps struct{}

func (nullOps) Escalate(ctx context.Context, text string) {}

type recordingHost struct {
	resumed []int64
}

func (h *recordingHost) Reactivate(ctx context.Context, userID int64, sess session.Session) error {
	h.resumed = append(h.resumed, userID)
	return nil
}

type staticDirectory struct{ approver approval.Approver }

func (d staticDirectory) Resolve(ctx context.Context, department string) (*approval.Approver, error) {
	a := d.approver
	return &a, nil
}

func newFixture(t *testing.T) (*approval.Controller, *store.RequestStore, *recordingHost) {
	t.Helper()

	silent := logger.New(log.New(io.Discard, "", log.LstdFlags), logger.Config{LogLevel: logger.Silent})
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: silent})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.ApprovalRequest{}))

	requests := store.NewRequestStore(db)
	host := &recordingHost{}
	dir := staticDirectory{approver: approval.Approver{ID: 700, Department: "7"}}
	ctrl := approval.NewController(requests, dir, nullChannel{}, host, nullOps{})
	return ctrl, requests, host
}

func pendingRequest(t *testing.T, requests *store.RequestStore) *model.ApprovalRequest {
	t.Helper()
	snapshot, err := session.Session{
		Step:    session.StepConfirm,
		Context: session.Context{ItemRef: "483920", Department: "7", AssortmentRank: "0"},
	}.Freeze()
	require.NoError(t, err)

	req := &model.ApprovalRequest{
		RequestID:  uuid.NewString(),
		UserID:     42,
		ApproverID: 700,
		Department: "7",
		ItemRef:    "483920",
		Status:     model.RequestPending,
		Snapshot:   snapshot,
	}
	require.NoError(t, requests.Create(context.Background(), req))
	return req
}

func TestApplyApprove(t *testing.T) {
	ctrl, requests, host := newFixture(t)
	req := pendingRequest(t, requests)

	err := apply(context.Background(), ctrl, Decision{RequestID: req.RequestID, ActorID: 700, Action: "approve"})
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, host.resumed)
}

func TestApplyReject(t *testing.T) {
	ctrl, requests, _ := newFixture(t)
	req := pendingRequest(t, requests)
	ctx := context.Background()

	err := apply(ctx, ctrl, Decision{RequestID: req.RequestID, ActorID: 700, Action: "reject", Reason: "no stock"})
	require.NoError(t, err)

	got, err := requests.Get(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestRejected, got.Status)
}

func TestApplyDropsFinalOutcomes(t *testing.T) {
	ctrl, requests, host := newFixture(t)
	req := pendingRequest(t, requests)
	ctx := context.Background()

	// Wrong actor, unknown request, empty reason: all final, all committed.
	assert.NoError(t, apply(ctx, ctrl, Decision{RequestID: req.RequestID, ActorID: 999, Action: "approve"}))
	assert.NoError(t, apply(ctx, ctrl, Decision{RequestID: "missing", ActorID: 700, Action: "approve"}))
	assert.NoError(t, apply(ctx, ctrl, Decision{RequestID: req.RequestID, ActorID: 700, Action: "reject", Reason: "  "}))
	assert.Empty(t, host.resumed)

	// A duplicate after a real decision is dropped too.
	require.NoError(t, apply(ctx, ctrl, Decision{RequestID: req.RequestID, ActorID: 700, Action: "reject", Reason: "no stock"}))
	assert.NoError(t, apply(ctx, ctrl, Decision{RequestID: req.RequestID, ActorID: 700, Action: "reject", Reason: "again"}))
}

func TestApplyUnknownActionSkipped(t *testing.T) {
	ctrl, _, host := newFixture(t)
	assert.NoError(t, apply(context.Background(), ctrl, Decision{RequestID: "any", ActorID: 700, Action: "escalate"}))
	assert.Empty(t, host.resumed)
}

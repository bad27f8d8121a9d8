package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Possessed66/BotLMKRD/app"
	"github.com/Possessed66/BotLMKRD/internal/approval"
	"github.com/Possessed66/BotLMKRD/internal/model"
	"github.com/Possessed66/BotLMKRD/internal/notify"
	"github.com/Possessed66/BotLMKRD/internal/store"

	"github.com/gofiber/fiber/v2"
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

type recordingOps struct {
	Escalations []string
}

func (o *recordingOps) Escalate(ctx context.Context, text string) {
	o.Escalations = append(o.Escalations, text)
}

type staticDirectory struct {
	approvers map[string]approval.Approver
}

func (d staticDirectory) Resolve(ctx context.Context, department string) (*approval.Approver, error) {
	a, ok := d.approvers[department]
	if !ok {
		return nil, approval.ErrNoApprover
	}
	return &a, nil
}

type apiFixture struct {
	app      *fiber.App
	api      *API
	queue    *store.QueueStore
	requests *store.RequestStore
	ops      *recordingOps
}

func newAPIFixture(t *testing.T, maxDepth int64) *apiFixture {
	t.Helper()

	silent := logger.New(log.New(io.Discard, "", log.LstdFlags), logger.Config{LogLevel: logger.Silent})
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: silent})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.ApprovalRequest{}, &model.QueueEntry{}, &model.DeviceToken{}))

	channel := nullChannel{}
	dir := staticDirectory{approvers: map[string]approval.Approver{
		"7": {ID: 700, FirstName: "Anna", LastName: "Orlova", Department: "7"},
	}}
	requests := store.NewRequestStore(db)
	queue := store.NewQueueStore(db, 5, maxDepth)
	ops := &recordingOps{}

	api := &API{
		Runtime:  app.NewRuntime(),
		Gate:     approval.NewGate(requests, dir, channel),
		Ctrl:     approval.NewController(requests, dir, channel, approval.PromptHost{Channel: channel}, ops),
		Queue:    queue,
		Requests: requests,
		Tokens:   store.NewDeviceTokenStore(db),
		Ops:      ops,
	}

	f := &apiFixture{app: fiber.New(), api: api, queue: queue, requests: requests, ops: ops}
	f.app.Post("/orders", api.SubmitOrder)
	f.app.Post("/approvals/:id/approve", api.ApproveRequest)
	f.app.Post("/approvals/:id/reject", api.RejectRequest)
	f.app.Post("/approvals/reason", api.RejectReason)
	f.app.Get("/approvals/:id", api.GetRequest)
	f.app.Get("/queue/stats", api.QueueStats)
	f.app.Post("/maintenance", api.SetMaintenance)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	var parsed map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return resp, parsed
}

func orderBody(rank string) map[string]any {
	return map[string]any{
		"user_id":  42,
		"username": "ivan",
		"context": map[string]any{
			"item_ref":        "483920",
			"location":        "K155",
			"item_name":       "Drill bit set",
			"supplier":        "ToolCorp",
			"department":      "7",
			"assortment_rank": rank,
			"quantity":        3,
		},
	}
}

func TestSubmitOrderQueued(t *testing.T) {
	f := newAPIFixture(t, 0)

	resp, body := f.do(t, http.MethodPost, "/orders", orderBody("3"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "queued", body["state"])
	require.Contains(t, body, "entry_id")

	entry, err := f.queue.Get(context.Background(), int64(body["entry_id"].(float64)))
	require.NoError(t, err)
	assert.Equal(t, model.EntryPending, entry.Status)

	order, err := model.ParseOrderPayload(entry.Payload)
	require.NoError(t, err)
	assert.Equal(t, "483920", order.ItemRef)
	assert.Equal(t, 3, order.Quantity)
	assert.False(t, order.OrderedAt.IsZero())
}

func TestSubmitOrderSuspended(t *testing.T) {
	f := newAPIFixture(t, 0)

	resp, body := f.do(t, http.MethodPost, "/orders", orderBody("0"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pending_approval", body["state"])
	requestID := body["request_id"].(string)
	require.NotEmpty(t, requestID)

	// Nothing reached the queue.
	depth, err := f.queue.Depth(context.Background())
	require.NoError(t, err)
	assert.Zero(t, depth)

	req, err := f.requests.Get(context.Background(), requestID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
}

func TestSubmitOrderValidation(t *testing.T) {
	f := newAPIFixture(t, 0)

	resp, _ := f.do(t, http.MethodPost, "/orders", map[string]any{"user_id": 42})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitOrderNoApprover(t *testing.T) {
	f := newAPIFixture(t, 0)

	body := orderBody("0")
	body["context"].(map[string]any)["department"] = "99"
	resp, _ := f.do(t, http.MethodPost, "/orders", body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestSubmitOrderQueueFull(t *testing.T) {
	f := newAPIFixture(t, 1)

	resp, _ := f.do(t, http.MethodPost, "/orders", orderBody("3"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/orders", orderBody("3"))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestSubmitOrderMaintenance(t *testing.T) {
	f := newAPIFixture(t, 0)

	resp, _ := f.do(t, http.MethodPost, "/maintenance", map[string]any{"enabled": true})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/orders", orderBody("3"))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/maintenance", map[string]any{"enabled": false})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, "/orders", orderBody("3"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestApproveOverHTTP(t *testing.T) {
	f := newAPIFixture(t, 0)

	_, body := f.do(t, http.MethodPost, "/orders", orderBody("0"))
	requestID := body["request_id"].(string)

	resp, _ := f.do(t, http.MethodPost, "/approvals/"+requestID+"/approve", map[string]any{"actor_id": 700})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Second approval of the same request: the row is already gone.
	resp, _ = f.do(t, http.MethodPost, "/approvals/"+requestID+"/approve", map[string]any{"actor_id": 700})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestApproveWrongActorOverHTTP(t *testing.T) {
	f := newAPIFixture(t, 0)

	_, body := f.do(t, http.MethodPost, "/orders", orderBody("0"))
	requestID := body["request_id"].(string)

	resp, _ := f.do(t, http.MethodPost, "/approvals/"+requestID+"/approve", map[string]any{"actor_id": 999})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRejectFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t, 0)

	_, body := f.do(t, http.MethodPost, "/orders", orderBody("0"))
	requestID := body["request_id"].(string)

	resp, _ := f.do(t, http.MethodPost, "/approvals/"+requestID+"/reject", map[string]any{"actor_id": 700})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Empty reason re-prompts without dropping the parked state.
	resp, _ = f.do(t, http.MethodPost, "/approvals/reason", map[string]any{"actor_id": 700, "reason": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/approvals/reason", map[string]any{"actor_id": 700, "reason": "out of budget"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The rejected row stays behind for audit.
	resp, body = f.do(t, http.MethodGet, "/approvals/"+requestID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, string(model.RequestRejected), data["status"])
}

func TestRejectReasonWithoutRejection(t *testing.T) {
	f := newAPIFixture(t, 0)

	resp, _ := f.do(t, http.MethodPost, "/approvals/reason", map[string]any{"actor_id": 700, "reason": "no stock"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestQueueStatsOverHTTP(t *testing.T) {
	f := newAPIFixture(t, 0)

	_, _ = f.do(t, http.MethodPost, "/orders", orderBody("3"))

	resp, body := f.do(t, http.MethodGet, "/queue/stats", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["pending"])
	assert.Equal(t, float64(1), body["depth"])
	assert.Equal(t, false, body["worker_running"])
}

func TestGetRequestNotFound(t *testing.T) {
	f := newAPIFixture(t, 0)
	resp, _ := f.do(t, http.MethodGet, "/approvals/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

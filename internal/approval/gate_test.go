package approval

import (
	"context"
	"testing"

	"github.com/Possessed66/BotLMKRD/internal/model"
	"github.com/Possessed66/BotLMKRD/internal/session"
	"github.com/Possessed66/BotLMKRD/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUserID     int64 = 42
	testApproverID int64 = 700
)

func restrictedSession() session.Session {
	return session.Session{
		Step: session.StepConfirm,
		Context: session.Context{
			ItemRef:        "483920",
			Location:       "K155",
			ItemName:       "Drill bit set",
			Supplier:       "ToolCorp",
			Department:     "7",
			AssortmentRank: "0",
			Quantity:       3,
			RequesterName:  "Ivan Petrov",
			RequesterRole:  "seller",
		},
	}
}

func testDirectory() fakeDirectory {
	return fakeDirectory{byDept: map[string]Approver{
		"7": {ID: testApproverID, FirstName: "Anna", LastName: "Orlova", Department: "7"},
	}}
}

func TestReviewUnrestrictedPassesThrough(t *testing.T) {
	requests := store.NewRequestStore(newTestDB(t))
	channel := &fakeChannel{}
	gate := NewGate(requests, testDirectory(), channel)

	sess := restrictedSession()
	sess.Context.AssortmentRank = "3"

	state, err := gate.Review(context.Background(), testUserID, "ivan", sess)
	require.NoError(t, err)
	assert.Equal(t, session.KindRunning, state.Kind)
	assert.Empty(t, channel.Sent, "an unrestricted order must not notify anyone")
}

func TestReviewSuspendsRestrictedOrder(t *testing.T) {
	requests := store.NewRequestStore(newTestDB(t))
	channel := &fakeChannel{}
	gate := NewGate(requests, testDirectory(), channel)
	ctx := context.Background()

	state, err := gate.Review(ctx, testUserID, "ivan", restrictedSession())
	require.NoError(t, err)
	assert.Equal(t, session.KindSuspended, state.Kind)
	require.NotEmpty(t, state.AwaitingRequest)

	req, err := requests.Get(ctx, state.AwaitingRequest)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Equal(t, testUserID, req.UserID)
	assert.Equal(t, testApproverID, req.ApproverID)
	assert.NotEmpty(t, req.Snapshot)
	assert.NotEmpty(t, req.ApproverMessage, "the prompt ref must be stored for later edits")

	// The snapshot carries the full conversation.
	restored, err := session.Restore(req.Snapshot)
	require.NoError(t, err)
	assert.Equal(t, restrictedSession(), restored)

	toApprover := channel.sentTo(testApproverID)
	require.Len(t, toApprover, 1)
	assert.Contains(t, toApprover[0].Text, "483920")
	require.Len(t, toApprover[0].Actions, 2)
	assert.Equal(t, "approve:"+state.AwaitingRequest, toApprover[0].Actions[0].Data)
	assert.Equal(t, "reject:"+state.AwaitingRequest, toApprover[0].Actions[1].Data)

	toRequester := channel.sentTo(testUserID)
	require.Len(t, toRequester, 1)
	assert.Contains(t, toRequester[0].Text, "Anna Orlova")
}

func TestReviewFailsWithoutApprover(t *testing.T) {
	requests := store.NewRequestStore(newTestDB(t))
	gate := NewGate(requests, fakeDirectory{byDept: map[string]Approver{}}, &fakeChannel{})

	_, err := gate.Review(context.Background(), testUserID, "ivan", restrictedSession())
	assert.ErrorIs(t, err, ErrNoApprover)
}

func TestReviewRollsBackWhenNotifyFails(t *testing.T) {
	requests := store.NewRequestStore(newTestDB(t))
	channel := &fakeChannel{SendErr: errSendDown}
	gate := NewGate(requests, testDirectory(), channel)
	ctx := context.Background()

	_, err := gate.Review(ctx, testUserID, "ivan", restrictedSession())
	require.Error(t, err)

	// The dead request row must not survive.
	_, err = requests.PendingForUser(ctx, testUserID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCachedDirectoryServesStaleOnRefreshFailure(t *testing.T) {
	src := &scriptedSource{roster: []Approver{{ID: testApproverID, Department: "7"}}}
	dir := NewCachedDirectory(src, 1) // 1ns: every lookup refreshes

	a, err := dir.Resolve(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, testApproverID, a.ID)

	src.err = errSendDown
	a, err = dir.Resolve(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, testApproverID, a.ID)
}

type scriptedSource struct {
	roster []Approver
	err    error
}

func (s *scriptedSource) Load(ctx context.Context) ([]Approver, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.roster, nil
}

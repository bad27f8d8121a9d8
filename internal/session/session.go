// Package session models the order-entry conversation as an explicit tagged
// state: either running with a live context, or suspended behind an approval
// request. A suspended session exists only as its frozen snapshot in the
// request row.
package session

import (
	"encoding/json"
	"fmt"

	"github.com/Possessed66/BotLMKRD/internal/blob"

	"gorm.io/datatypes"
)

type Step string

const (
	StepQuantity Step = "quantity_input"
	StepReason   Step = "reason_input"
	StepConfirm  Step = "confirmation"
	StepDone     Step = "done"
)

// SnapshotVersion tags every frozen snapshot so a future field layout can be
// told apart from this one instead of being silently misread.
const SnapshotVersion = 1

// Context carries the order fields collected so far in the conversation.
// No omitempty here: the snapshot codec relies on every declared field being
// present in the serialized form.
type Context struct {
	ItemRef        string `json:"item_ref"`
	Location       string `json:"location"`
	ItemName       string `json:"item_name"`
	Supplier       string `json:"supplier"`
	Department     string `json:"department"`
	AssortmentRank string `json:"assortment_rank"`
	Quantity       int    `json:"quantity"`
	Reason         string `json:"reason"`
	RequesterName  string `json:"requester_name"`
	RequesterRole  string `json:"requester_role"`
}

// RequiresApproval reports whether this order may not proceed without a
// manager's sign-off. Rank-0 items are the restricted assortment.
func (c Context) RequiresApproval() bool {
	return c.AssortmentRank == "0"
}

// Session is a running order-entry conversation. ContextExtra and Extra hold
// snapshot fields this build does not declare; they ride along untouched.
type Session struct {
	Step         Step
	Context      Context
	ContextExtra map[string]json.RawMessage
	Extra        map[string]json.RawMessage
}

type snapshotHead struct {
	Version int             `json:"version"`
	Step    Step            `json:"step"`
	Context json.RawMessage `json:"context"`
}

// Freeze serializes the complete session into a snapshot blob.
func (s Session) Freeze() (datatypes.JSON, error) {
	ctxRaw, err := blob.MergeUnknown(s.Context, s.ContextExtra)
	if err != nil {
		return nil, fmt.Errorf("freeze session context: %w", err)
	}
	head := snapshotHead{
		Version: SnapshotVersion,
		Step:    s.Step,
		Context: ctxRaw,
	}
	out, err := blob.MergeUnknown(head, s.Extra)
	if err != nil {
		return nil, fmt.Errorf("freeze session: %w", err)
	}
	return out, nil
}

// Restore rebuilds a session from a snapshot blob. Restore(Freeze(s)) yields
// a session equivalent to s.
func Restore(data []byte) (Session, error) {
	var head snapshotHead
	extra, err := blob.SplitUnknown(data, &head)
	if err != nil {
		return Session{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if head.Version != SnapshotVersion {
		return Session{}, fmt.Errorf("unsupported snapshot version %d", head.Version)
	}

	var ctx Context
	ctxExtra, err := blob.SplitUnknown(head.Context, &ctx)
	if err != nil {
		return Session{}, fmt.Errorf("decode snapshot context: %w", err)
	}

	return Session{
		Step:         head.Step,
		Context:      ctx,
		ContextExtra: ctxExtra,
		Extra:        extra,
	}, nil
}

// Advance moves the session to its next entry step. A session frozen at the
// quantity step resumes at reason input, same as the uninterrupted flow.
func (s Session) Advance() Session {
	switch s.Step {
	case StepQuantity:
		s.Step = StepReason
	case StepReason:
		s.Step = StepConfirm
	case StepConfirm:
		s.Step = StepDone
	}
	return s
}

type StateKind string

const (
	KindRunning   StateKind = "running"
	KindSuspended StateKind = "suspended"
)

// State is the tagged session state the gate hands back to its caller.
type State struct {
	Kind            StateKind
	Session         *Session // set when running
	AwaitingRequest string   // set when suspended
}

func Running(s Session) State {
	return State{Kind: KindRunning, Session: &s}
}

func Suspended(requestID string) State {
	return State{Kind: KindSuspended, AwaitingRequest: requestID}
}

package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Possessed66/BotLMKRD/internal/blob"

	"gorm.io/datatypes"
)

// OrderPayloadVersion tags the queue payload layout.
const OrderPayloadVersion = 1

// OrderPayload is the finalized order as it travels through the queue to the
// external ledger. The queue treats it as opaque bytes; only the worker's
// escalation summary and the ledger client ever look inside. Extra preserves
// fields written by a newer build.
type OrderPayload struct {
	Version       int       `json:"version"`
	ItemRef       string    `json:"item_ref"`
	Location      string    `json:"location"`
	ItemName      string    `json:"item_name"`
	Supplier      string    `json:"supplier"`
	Department    string    `json:"department"`
	Quantity      int       `json:"quantity"`
	Reason        string    `json:"reason"`
	RequesterName string    `json:"requester_name"`
	RequesterRole string    `json:"requester_role"`
	OrderedAt     time.Time `json:"ordered_at"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Marshal serializes the payload, folding preserved unknown fields back in.
func (p OrderPayload) Marshal() (datatypes.JSON, error) {
	type plain OrderPayload
	out, err := blob.MergeUnknown(plain(p), p.Extra)
	if err != nil {
		return nil, fmt.Errorf("marshal order payload: %w", err)
	}
	return out, nil
}

// ParseOrderPayload decodes a payload blob, keeping undeclared fields.
func ParseOrderPayload(data []byte) (OrderPayload, error) {
	type plain OrderPayload
	var p plain
	extra, err := blob.SplitUnknown(data, &p)
	if err != nil {
		return OrderPayload{}, fmt.Errorf("parse order payload: %w", err)
	}
	out := OrderPayload(p)
	out.Extra = extra
	return out, nil
}

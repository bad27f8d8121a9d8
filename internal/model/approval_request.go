package model

import (
	"time"

	"gorm.io/datatypes"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// ApprovalRequest is a paused order waiting for an approver's decision. The
// frozen session lives entirely in Snapshot; there is no in-process state to
// correlate. Note: the (user_id, status) index is not unique, so two pending
// requests for one user can coexist if two submissions race.
type ApprovalRequest struct {
	RequestID       string         `json:"request_id" gorm:"primaryKey;size:36"`
	UserID          int64          `json:"user_id" gorm:"index:idx_user_status;not null"`
	ApproverID      int64          `json:"approver_id" gorm:"not null"`
	Department      string         `json:"department" gorm:"not null"`
	ItemRef         string         `json:"item_ref" gorm:"not null"`
	Location        string         `json:"location" gorm:"not null"`
	ItemName        string         `json:"item_name"`
	ItemSupplier    string         `json:"item_supplier"`
	Status          RequestStatus  `json:"status" gorm:"size:16;default:'pending';index:idx_user_status"`
	Snapshot        datatypes.JSON `json:"snapshot" gorm:"not null"`
	ApproverMessage datatypes.JSON `json:"approver_message"`
	RejectReason    *string        `json:"reject_reason,omitempty" gorm:"type:text"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Decided reports whether the request reached a terminal status.
func (r *ApprovalRequest) Decided() bool {
	return r.Status != RequestPending
}

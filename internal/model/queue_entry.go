package model

import (
	"time"

	"gorm.io/datatypes"
)

type EntryStatus string

const (
	EntryPending    EntryStatus = "pending"
	EntryProcessing EntryStatus = "processing"
	EntryCompleted  EntryStatus = "completed"
	EntryFailed     EntryStatus = "failed"
)

// QueueEntry is a finalized order waiting to be written to the external
// ledger. AttemptCount only ever grows, and only on failed delivery attempts.
type QueueEntry struct {
	ID            int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID        int64          `json:"user_id" gorm:"index;not null"`
	Payload       datatypes.JSON `json:"payload" gorm:"not null"`
	Status        EntryStatus    `json:"status" gorm:"size:16;default:'pending';index"`
	AttemptCount  int            `json:"attempt_count" gorm:"default:0"`
	LastAttemptAt *time.Time     `json:"last_attempt_at"`
	ErrorMessage  *string        `json:"error_message" gorm:"type:text"`
	CreatedAt     time.Time      `json:"created_at"`
	ProcessedAt   *time.Time     `json:"processed_at"`
}

package model

import "time"

// Approver is the roster row mapping a department to the identity allowed to
// decide its restricted orders. The table is refreshed by an external import
// job; this service only reads it.
type Approver struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ApproverID int64     `json:"approver_id" gorm:"not null"`
	Department string    `json:"department" gorm:"uniqueIndex;not null"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

package model

import "time"

// DeviceToken stores a push token for one of a requester's devices, used to
// mirror order notices to mobile/web push.
type DeviceToken struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      int64     `json:"user_id" gorm:"index;not null"`
	DeviceToken string    `json:"device_token" gorm:"uniqueIndex;not null"`
	DeviceType  string    `json:"device_type" gorm:"not null"` // mobile, web, ...
	Expired     bool      `json:"expired" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
}

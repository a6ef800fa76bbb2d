package model

import "time"

// PendingNotification 待推送的新增关注，每条关注关系最多一行
type PendingNotification struct {
	ID                  uint64    `gorm:"primaryKey" json:"id"`
	TrackedAccountID    uint64    `gorm:"not null;uniqueIndex:idx_pending_account_followed" json:"trackedAccountId"`
	FollowedExternalID  string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_pending_account_followed" json:"followedExternalId"`
	FollowedHandle      string    `gorm:"type:varchar(64)" json:"followedHandle"`
	FollowedDisplayName string    `gorm:"type:varchar(255)" json:"followedDisplayName"`
	DetectedAt          time.Time `json:"detectedAt"`
	Delivered           bool      `gorm:"not null;default:false;index:idx_pending_delivered" json:"delivered"`
}

func (PendingNotification) TableName() string {
	return "pending_notifications"
}

// UndeliveredNotification 未推送记录，附带被追踪账号信息
type UndeliveredNotification struct {
	PendingNotification
	TrackedHandle      string `json:"trackedHandle"`
	TrackedDisplayName string `json:"trackedDisplayName"`
}

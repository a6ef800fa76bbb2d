package model

import "time"

// FollowingEdge 被追踪账号的一条关注关系，首次出现后永久保留
type FollowingEdge struct {
	ID                  uint64    `gorm:"primaryKey" json:"id"`
	TrackedAccountID    uint64    `gorm:"not null;uniqueIndex:idx_edge_account_followed" json:"trackedAccountId"`
	FollowedExternalID  string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_edge_account_followed" json:"followedExternalId"`
	FollowedHandle      string    `gorm:"type:varchar(64)" json:"followedHandle"`
	FollowedDisplayName string    `gorm:"type:varchar(255)" json:"followedDisplayName"`
	FirstSeen           time.Time `json:"firstSeen"`
}

func (FollowingEdge) TableName() string {
	return "following_edges"
}

// ObservedAccount 一次拉取中看到的账号
type ObservedAccount struct {
	ExternalID  string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
}

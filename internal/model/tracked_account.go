package model

import "time"

type TrackedAccount struct {
	ID          uint64     `gorm:"primaryKey" json:"id"`
	ExternalID  string     `gorm:"type:varchar(64);uniqueIndex:idx_external_id;not null" json:"externalId"`
	Handle      string     `gorm:"type:varchar(64);uniqueIndex:idx_handle;not null" json:"handle"`
	DisplayName string     `gorm:"type:varchar(255)" json:"displayName"`
	LastUpdated *time.Time `json:"lastUpdated"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (TrackedAccount) TableName() string {
	return "tracked_accounts"
}

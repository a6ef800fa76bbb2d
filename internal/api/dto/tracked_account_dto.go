package dto

import "time"

// TrackedAccountDTO 被追踪账号
type TrackedAccountDTO struct {
	ID          uint64     `json:"id"`
	ExternalID  string     `json:"external_id"`
	Handle      string     `json:"handle"`
	DisplayName string     `json:"display_name"`
	LastUpdated *time.Time `json:"last_updated"`
}

// AddAccountDTO 新增追踪请求
type AddAccountDTO struct {
	Handle string `json:"handle" validate:"required,min=1,max=64"`
}

// AccountResultDTO 新增 / 移除结果
type AccountResultDTO struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Account *TrackedAccountDTO `json:"account,omitempty"`
}

// FollowingEdgeDTO 一条关注关系
type FollowingEdgeDTO struct {
	ID                  uint64    `json:"id"`
	TrackedAccountID    uint64    `json:"tracked_account_id"`
	FollowedExternalID  string    `json:"followed_external_id"`
	FollowedHandle      string    `json:"followed_handle"`
	FollowedDisplayName string    `json:"followed_display_name"`
	FirstSeen           time.Time `json:"first_seen"`
}

// AccountUpdateDTO 单账号即时更新结果
type AccountUpdateDTO struct {
	TrackedAccountID uint64              `json:"tracked_account_id"`
	Handle           string              `json:"handle"`
	NewCount         int                 `json:"new_followings_count"`
	NewFollowings    []*FollowingEdgeDTO `json:"new_followings"`
}

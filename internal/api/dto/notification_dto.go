package dto

import "time"

// NotificationDTO 未推送的新增关注
type NotificationDTO struct {
	ID                  uint64    `json:"id"`
	TrackedAccountID    uint64    `json:"tracked_account_id"`
	FollowedExternalID  string    `json:"followed_external_id"`
	FollowedHandle      string    `json:"followed_handle"`
	FollowedDisplayName string    `json:"followed_display_name"`
	DetectedAt          time.Time `json:"detected_at"`
	Delivered           bool      `json:"delivered"`
	TrackedHandle       string    `json:"tracked_handle"`
	TrackedDisplayName  string    `json:"tracked_display_name"`
}

// MarkDeliveredDTO 标记已推送请求
type MarkDeliveredDTO struct {
	IDs []uint64 `json:"ids" validate:"omitempty,dive,gt=0"`
}

// SweepStateDTO 轮询状态
type SweepStateDTO struct {
	State string `json:"state"`
}

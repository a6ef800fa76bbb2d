package repository

import (
	"FollowTracker/internal/model"
	"context"

	"gorm.io/gorm"
)

type NotificationRepo interface {
	ListUndelivered(ctx context.Context) ([]*model.UndeliveredNotification, error)
	MarkDelivered(ctx context.Context, ids []uint64) (int64, error)
	CountByAccount(ctx context.Context, trackedAccountID uint64) (int64, error)
}

type NotificationRepoImpl struct {
	db *gorm.DB
}

func NewNotificationRepo(db *gorm.DB) NotificationRepo {
	return &NotificationRepoImpl{db: db}
}

// ListUndelivered 未推送记录，关联被追踪账号的 handle 与昵称
func (s *NotificationRepoImpl) ListUndelivered(ctx context.Context) ([]*model.UndeliveredNotification, error) {
	rows := make([]*model.UndeliveredNotification, 0)
	result := s.db.WithContext(ctx).
		Table("pending_notifications AS pn").
		Select("pn.*, ta.handle AS tracked_handle, ta.display_name AS tracked_display_name").
		Joins("JOIN tracked_accounts ta ON ta.id = pn.tracked_account_id").
		Where("pn.delivered = ?", false).
		Order("pn.id asc").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

// MarkDelivered 标记已推送，未知 ID 忽略
func (s *NotificationRepoImpl) MarkDelivered(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).
		Model(&model.PendingNotification{}).
		Where("id IN ? AND delivered = ?", ids, false).
		Update("delivered", true)
	return result.RowsAffected, result.Error
}

func (s *NotificationRepoImpl) CountByAccount(ctx context.Context, trackedAccountID uint64) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).
		Model(&model.PendingNotification{}).
		Where("tracked_account_id = ?", trackedAccountID).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

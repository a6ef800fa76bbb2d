package service

import (
	"FollowTracker/internal/model"
	"FollowTracker/internal/pkg/util"
	"FollowTracker/internal/repository"
	"context"
	"fmt"
)

type NotificationLedger interface {
	ListUndelivered(ctx context.Context) ([]*model.UndeliveredNotification, error)
	MarkDelivered(ctx context.Context, ids []uint64) (int64, error)
}

type NotificationLedgerImpl struct {
	notificationRepo repository.NotificationRepo
}

func NewNotificationLedger(notificationRepo repository.NotificationRepo) NotificationLedger {
	return &NotificationLedgerImpl{notificationRepo: notificationRepo}
}

// ListUndelivered 返回全部未推送记录，调用方不应依赖顺序
func (s *NotificationLedgerImpl) ListUndelivered(ctx context.Context) ([]*model.UndeliveredNotification, error) {
	rows, err := s.notificationRepo.ListUndelivered(ctx)
	if err != nil {
		return nil, fmt.Errorf("list undelivered notifications: %w", err)
	}
	return rows, nil
}

// MarkDelivered 已推送标记只会从 false 变为 true
func (s *NotificationLedgerImpl) MarkDelivered(ctx context.Context, ids []uint64) (int64, error) {
	ids = util.UniqueUint64(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	affected, err := s.notificationRepo.MarkDelivered(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("mark notifications delivered: %w", err)
	}
	return affected, nil
}

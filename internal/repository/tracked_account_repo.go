package repository

import (
	"FollowTracker/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TrackedAccountRepo interface {
	UpsertTrackedAccount(ctx context.Context, externalID, handle, displayName string) (uint64, error)
	ListTrackedAccounts(ctx context.Context) ([]*model.TrackedAccount, error)
	GetTrackedAccountByID(ctx context.Context, id uint64) (*model.TrackedAccount, error)
	GetTrackedAccountByHandle(ctx context.Context, handle string) (*model.TrackedAccount, error)
	RemoveTrackedAccount(ctx context.Context, id uint64) error
}

type TrackedAccountRepoImpl struct {
	db *gorm.DB
}

func NewTrackedAccountRepo(db *gorm.DB) TrackedAccountRepo {
	return &TrackedAccountRepoImpl{db: db}
}

// UpsertTrackedAccount 新增追踪账号，external_id 或 handle 已存在时返回已有记录 ID，不更新昵称
func (s *TrackedAccountRepoImpl) UpsertTrackedAccount(ctx context.Context, externalID, handle, displayName string) (uint64, error) {
	account := &model.TrackedAccount{
		ExternalID:  externalID,
		Handle:      handle,
		DisplayName: displayName,
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(account)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 && account.ID != 0 {
		return account.ID, nil
	}

	var existing model.TrackedAccount
	result = s.db.WithContext(ctx).
		Where("external_id = ? OR handle = ?", externalID, handle).
		Order("id asc").
		First(&existing)
	if result.Error != nil {
		return 0, result.Error
	}
	return existing.ID, nil
}

// ListTrackedAccounts 按插入顺序返回全部追踪账号
func (s *TrackedAccountRepoImpl) ListTrackedAccounts(ctx context.Context) ([]*model.TrackedAccount, error) {
	accounts := make([]*model.TrackedAccount, 0)
	result := s.db.WithContext(ctx).
		Order("id asc").
		Find(&accounts)
	if result.Error != nil {
		return nil, result.Error
	}
	return accounts, nil
}

func (s *TrackedAccountRepoImpl) GetTrackedAccountByID(ctx context.Context, id uint64) (*model.TrackedAccount, error) {
	account := &model.TrackedAccount{}
	result := s.db.WithContext(ctx).First(account, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return account, nil
}

// GetTrackedAccountByHandle handle 不区分大小写
func (s *TrackedAccountRepoImpl) GetTrackedAccountByHandle(ctx context.Context, handle string) (*model.TrackedAccount, error) {
	account := &model.TrackedAccount{}
	result := s.db.WithContext(ctx).
		Where("LOWER(handle) = LOWER(?)", handle).
		First(account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return account, nil
}

// RemoveTrackedAccount 先删除关注关系与待推送记录，再删除账号；任一步失败整体回滚
func (s *TrackedAccountRepoImpl) RemoveTrackedAccount(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("tracked_account_id = ?", id).Delete(&model.FollowingEdge{})
		if result.Error != nil {
			return result.Error
		}

		result = tx.Where("tracked_account_id = ?", id).Delete(&model.PendingNotification{})
		if result.Error != nil {
			return result.Error
		}

		result = tx.Delete(&model.TrackedAccount{}, id)
		if result.Error != nil {
			return result.Error
		}
		return nil
	})
}

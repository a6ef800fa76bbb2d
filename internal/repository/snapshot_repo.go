package repository

import (
	"FollowTracker/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 200

// SnapshotRepo 关注快照的存储原语：集合读取与存在即忽略的插入
type SnapshotRepo interface {
	Transaction(ctx context.Context, fn func(repo SnapshotRepo) error) error
	GetKnownFollowedIDs(ctx context.Context, trackedAccountID uint64) (map[string]struct{}, error)
	InsertEdgesIfAbsent(ctx context.Context, edges []*model.FollowingEdge) error
	InsertPendingIfAbsent(ctx context.Context, rows []*model.PendingNotification) error
	TouchLastUpdated(ctx context.Context, trackedAccountID uint64, now time.Time) error
	GetEdgesByFollowedIDs(ctx context.Context, trackedAccountID uint64, followedIDs []string) ([]*model.FollowingEdge, error)
	ListEdges(ctx context.Context, trackedAccountID uint64) ([]*model.FollowingEdge, error)
}

type SnapshotRepoImpl struct {
	db *gorm.DB
}

func NewSnapshotRepo(db *gorm.DB) SnapshotRepo {
	return &SnapshotRepoImpl{db: db}
}

// Transaction 在同一事务内执行 fn，fn 返回错误时回滚
func (s *SnapshotRepoImpl) Transaction(ctx context.Context, fn func(repo SnapshotRepo) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SnapshotRepoImpl{db: tx})
	})
}

func (s *SnapshotRepoImpl) GetKnownFollowedIDs(ctx context.Context, trackedAccountID uint64) (map[string]struct{}, error) {
	var ids []string
	result := s.db.WithContext(ctx).
		Model(&model.FollowingEdge{}).
		Where("tracked_account_id = ?", trackedAccountID).
		Pluck("followed_external_id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}

	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	return known, nil
}

func (s *SnapshotRepoImpl) InsertEdgesIfAbsent(ctx context.Context, edges []*model.FollowingEdge) error {
	if len(edges) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(edges, insertBatchSize).Error
}

func (s *SnapshotRepoImpl) InsertPendingIfAbsent(ctx context.Context, rows []*model.PendingNotification) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, insertBatchSize).Error
}

func (s *SnapshotRepoImpl) TouchLastUpdated(ctx context.Context, trackedAccountID uint64, now time.Time) error {
	return s.db.WithContext(ctx).
		Model(&model.TrackedAccount{}).
		Where("id = ?", trackedAccountID).
		Update("last_updated", now).Error
}

func (s *SnapshotRepoImpl) GetEdgesByFollowedIDs(ctx context.Context, trackedAccountID uint64, followedIDs []string) ([]*model.FollowingEdge, error) {
	edges := make([]*model.FollowingEdge, 0, len(followedIDs))
	if len(followedIDs) == 0 {
		return edges, nil
	}
	result := s.db.WithContext(ctx).
		Where("tracked_account_id = ? AND followed_external_id IN ?", trackedAccountID, followedIDs).
		Order("id asc").
		Find(&edges)
	if result.Error != nil {
		return nil, result.Error
	}
	return edges, nil
}

// ListEdges 返回已记录的全部关注关系
func (s *SnapshotRepoImpl) ListEdges(ctx context.Context, trackedAccountID uint64) ([]*model.FollowingEdge, error) {
	edges := make([]*model.FollowingEdge, 0)
	result := s.db.WithContext(ctx).
		Where("tracked_account_id = ?", trackedAccountID).
		Order("first_seen asc, id asc").
		Find(&edges)
	if result.Error != nil {
		return nil, result.Error
	}
	return edges, nil
}

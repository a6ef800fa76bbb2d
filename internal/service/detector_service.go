package service

import (
	"FollowTracker/internal/model"
	"FollowTracker/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"sort"
	"time"
)

// AccountLocker 按被追踪账号加独占锁，返回的函数用于释放
type AccountLocker interface {
	Lock(ctx context.Context, accountID uint64) (func(), error)
}

type DeltaDetector interface {
	Apply(ctx context.Context, trackedAccountID uint64, observed []model.ObservedAccount) ([]*model.FollowingEdge, error)
}

type DeltaDetectorImpl struct {
	snapshotRepo repository.SnapshotRepo
	locker       AccountLocker
	now          func() time.Time
}

func NewDeltaDetector(snapshotRepo repository.SnapshotRepo, locker AccountLocker) DeltaDetector {
	return &DeltaDetectorImpl{
		snapshotRepo: snapshotRepo,
		locker:       locker,
		now:          time.Now,
	}
}

// Apply 写入一次关注快照并返回新增的关注关系。
// 读取已知集合、插入、求差集在账号锁与同一事务内完成，并发轮询同一账号时新增关系只会被报告一次。
func (s *DeltaDetectorImpl) Apply(ctx context.Context, trackedAccountID uint64, observed []model.ObservedAccount) ([]*model.FollowingEdge, error) {
	unlock, err := s.locker.Lock(ctx, trackedAccountID)
	if err != nil {
		return nil, fmt.Errorf("lock tracked account %d: %w", trackedAccountID, err)
	}
	defer unlock()

	observed = dedupeObserved(observed)
	now := s.now()

	var created []*model.FollowingEdge
	err = s.snapshotRepo.Transaction(ctx, func(tx repository.SnapshotRepo) error {
		known, err := tx.GetKnownFollowedIDs(ctx, trackedAccountID)
		if err != nil {
			return err
		}

		edges := make([]*model.FollowingEdge, 0, len(observed))
		for _, o := range observed {
			edges = append(edges, &model.FollowingEdge{
				TrackedAccountID:    trackedAccountID,
				FollowedExternalID:  o.ExternalID,
				FollowedHandle:      o.Handle,
				FollowedDisplayName: o.DisplayName,
				FirstSeen:           now,
			})
		}
		if err = tx.InsertEdgesIfAbsent(ctx, edges); err != nil {
			return err
		}

		newIDs := DiffNewIDs(known, observed)

		pending := make([]*model.PendingNotification, 0, len(newIDs))
		for _, o := range observed {
			if _, ok := newIDs[o.ExternalID]; !ok {
				continue
			}
			pending = append(pending, &model.PendingNotification{
				TrackedAccountID:    trackedAccountID,
				FollowedExternalID:  o.ExternalID,
				FollowedHandle:      o.Handle,
				FollowedDisplayName: o.DisplayName,
				DetectedAt:          now,
			})
		}
		if err = tx.InsertPendingIfAbsent(ctx, pending); err != nil {
			return err
		}

		if err = tx.TouchLastUpdated(ctx, trackedAccountID, now); err != nil {
			return err
		}

		created, err = tx.GetEdgesByFollowedIDs(ctx, trackedAccountID, sortedKeys(newIDs))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("apply following snapshot for account %d: %w", trackedAccountID, err)
	}

	log.InfoContext(ctx, "following snapshot applied",
		"tracked_account_id", trackedAccountID,
		"observed", len(observed),
		"new", len(created))
	return created, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

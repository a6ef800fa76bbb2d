package service

import (
	"FollowTracker/internal/api/config"
	"FollowTracker/internal/model"
	"FollowTracker/internal/pkg/database"
	"FollowTracker/internal/pkg/lock"
	"FollowTracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffNewIDs(t *testing.T) {
	known := map[string]struct{}{"1001": {}, "1002": {}}

	tests := []struct {
		name     string
		observed []model.ObservedAccount
		want     []string
	}{
		{name: "all known", observed: observedIDs("1001", "1002"), want: []string{}},
		{name: "one new", observed: observedIDs("1001", "1002", "1003"), want: []string{"1003"}},
		{name: "unfollow ignored", observed: observedIDs("1001"), want: []string{}},
		{name: "duplicate counted once", observed: observedIDs("1004", "1004"), want: []string{"1004"}},
		{name: "empty", observed: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiffNewIDs(known, tt.observed)
			assert.ElementsMatch(t, tt.want, sortedKeys(got))
		})
	}
}

func TestDedupeObserved_KeepsFirst(t *testing.T) {
	in := []model.ObservedAccount{
		{ExternalID: "1", Handle: "first"},
		{ExternalID: "2", Handle: "two"},
		{ExternalID: "1", Handle: "second"},
	}
	out := dedupeObserved(in)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Handle)
	assert.Equal(t, "2", out[1].ExternalID)
}

func TestDeltaDetector_Scenarios(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, PollOptions{})
	id := env.track(t, "1", "alice")

	// A: 新账号首次快照全部视为新增
	created, err := env.detector.Apply(ctx, id, observedIDs("1001", "1002"))
	require.NoError(t, err)
	assert.Len(t, created, 2)
	pending, err := env.ledger.ListUndelivered(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	// B: 相同快照无新增，账本不变
	created, err = env.detector.Apply(ctx, id, observedIDs("1001", "1002"))
	require.NoError(t, err)
	assert.Empty(t, created)
	pending, err = env.ledger.ListUndelivered(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	// C: 新增一个
	created, err = env.detector.Apply(ctx, id, observedIDs("1001", "1002", "1003"))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "1003", created[0].FollowedExternalID)
	assert.Equal(t, "user1003", created[0].FollowedHandle)
	pending, err = env.ledger.ListUndelivered(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	// D: 标记已推送后不再出现
	first := pending[0].ID
	affected, err := env.ledger.MarkDelivered(ctx, []uint64{first, first})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	pending, err = env.ledger.ListUndelivered(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	for _, p := range pending {
		assert.NotEqual(t, first, p.ID)
	}

	// 已推送的关系再次出现不会重新进入账本
	created, err = env.detector.Apply(ctx, id, observedIDs("1001", "1002", "1003"))
	require.NoError(t, err)
	assert.Empty(t, created)
	pending, err = env.ledger.ListUndelivered(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestDeltaDetector_RemoveAndReAdd(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, PollOptions{})
	id := env.track(t, "1", "alice")

	_, err := env.detector.Apply(ctx, id, observedIDs("1001", "1002"))
	require.NoError(t, err)

	res, err := env.tracker.RemoveAccount(ctx, "@alice")
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)

	pending, err := env.ledger.ListUndelivered(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	reAdded, err := env.accounts.UpsertTrackedAccount(ctx, "1", "alice", "Alice")
	require.NoError(t, err)

	known, err := env.snapshots.GetKnownFollowedIDs(ctx, reAdded)
	require.NoError(t, err)
	assert.Empty(t, known)

	created, err := env.detector.Apply(ctx, reAdded, observedIDs("1001"))
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestDeltaDetector_MonotonicSnapshot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, PollOptions{})
	id := env.track(t, "1", "alice")

	_, err := env.detector.Apply(ctx, id, observedIDs("1001", "1002", "1003"))
	require.NoError(t, err)

	// 取关不删除已有关系
	created, err := env.detector.Apply(ctx, id, observedIDs("1002"))
	require.NoError(t, err)
	assert.Empty(t, created)

	known, err := env.snapshots.GetKnownFollowedIDs(ctx, id)
	require.NoError(t, err)
	assert.Len(t, known, 3)

	account, err := env.accounts.GetTrackedAccountByID(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, account.LastUpdated)
}

func TestDeltaDetector_DuplicateInput(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, PollOptions{})
	id := env.track(t, "1", "alice")

	created, err := env.detector.Apply(ctx, id, observedIDs("1001", "1001", "1002"))
	require.NoError(t, err)
	assert.Len(t, created, 2)

	pending, err := env.ledger.ListUndelivered(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

// barrierSnapshotRepo 内存快照存储，读取已知集合后等待其他读者到齐，
// 没有账号锁时所有并发调用都会基于同一份旧集合求差
type barrierSnapshotRepo struct {
	mu      sync.Mutex
	edges   map[string]*model.FollowingEdge
	nextID  uint64
	parties int
	arrived int
	release chan struct{}
	wait    time.Duration
}

func newBarrierSnapshotRepo(parties int) *barrierSnapshotRepo {
	return &barrierSnapshotRepo{
		edges:   make(map[string]*model.FollowingEdge),
		parties: parties,
		release: make(chan struct{}),
		wait:    50 * time.Millisecond,
	}
}

func (s *barrierSnapshotRepo) Transaction(_ context.Context, fn func(repo repository.SnapshotRepo) error) error {
	return fn(s)
}

func (s *barrierSnapshotRepo) GetKnownFollowedIDs(context.Context, uint64) (map[string]struct{}, error) {
	s.mu.Lock()
	known := make(map[string]struct{}, len(s.edges))
	for id := range s.edges {
		known[id] = struct{}{}
	}
	s.arrived++
	if s.arrived == s.parties {
		close(s.release)
	}
	s.mu.Unlock()

	select {
	case <-s.release:
	case <-time.After(s.wait):
	}
	return known, nil
}

func (s *barrierSnapshotRepo) InsertEdgesIfAbsent(_ context.Context, edges []*model.FollowingEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range edges {
		if _, ok := s.edges[e.FollowedExternalID]; ok {
			continue
		}
		s.nextID++
		cp := *e
		cp.ID = s.nextID
		s.edges[e.FollowedExternalID] = &cp
	}
	return nil
}

func (s *barrierSnapshotRepo) InsertPendingIfAbsent(context.Context, []*model.PendingNotification) error {
	return nil
}

func (s *barrierSnapshotRepo) TouchLastUpdated(context.Context, uint64, time.Time) error {
	return nil
}

func (s *barrierSnapshotRepo) GetEdgesByFollowedIDs(_ context.Context, _ uint64, followedIDs []string) ([]*model.FollowingEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]*model.FollowingEdge, 0, len(followedIDs))
	for _, id := range followedIDs {
		if e, ok := s.edges[id]; ok {
			res = append(res, e)
		}
	}
	return res, nil
}

func (s *barrierSnapshotRepo) ListEdges(context.Context, uint64) ([]*model.FollowingEdge, error) {
	return nil, nil
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, uint64) (func(), error) {
	return func() {}, nil
}

func concurrentReported(t *testing.T, detector DeltaDetector, workers int) int {
	t.Helper()
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := detector.Apply(context.Background(), 1, observedIDs("1001", "1002", "1003"))
			assert.NoError(t, err)
			mu.Lock()
			total += len(created)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return total
}

func TestDeltaDetector_ConcurrentApplyReportsOnce(t *testing.T) {
	const workers = 8
	detector := NewDeltaDetector(newBarrierSnapshotRepo(workers), lock.NewKeyedLocker())
	assert.Equal(t, 3, concurrentReported(t, detector, workers))
}

func TestDeltaDetector_ConcurrentApplyWithoutLockDoubleReports(t *testing.T) {
	const workers = 8
	detector := NewDeltaDetector(newBarrierSnapshotRepo(workers), noopLocker{})
	assert.Greater(t, concurrentReported(t, detector, workers), 3)
}

func TestDeltaDetector_ConcurrentApplyFileStore(t *testing.T) {
	db, err := database.NewGormDB(&config.DBConfig{
		Driver:  database.DriverSQLite,
		DSN:     filepath.Join(t.TempDir(), "tracker.db"),
		MaxIdle: 4,
		MaxOpen: 4,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	ctx := context.Background()
	accounts := repository.NewTrackedAccountRepo(db)
	detector := NewDeltaDetector(repository.NewSnapshotRepo(db), lock.NewKeyedLocker())

	ids := make([]string, 200)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", 5000+i)
	}
	observed := observedIDs(ids...)

	const numAccounts, rounds = 8, 5
	accountIDs := make([]uint64, numAccounts)
	for i := range accountIDs {
		handle := fmt.Sprintf("acct%d", i)
		accountIDs[i], err = accounts.UpsertTrackedAccount(ctx, fmt.Sprintf("%d", i+1), handle, handle)
		require.NoError(t, err)
	}

	reported := make([]int, numAccounts)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i, accountID := range accountIDs {
		for r := 0; r < rounds; r++ {
			wg.Add(1)
			go func(i int, accountID uint64) {
				defer wg.Done()
				created, err := detector.Apply(ctx, accountID, observed)
				assert.NoError(t, err)
				mu.Lock()
				reported[i] += len(created)
				mu.Unlock()
			}(i, accountID)
		}
	}
	wg.Wait()

	for i := range reported {
		assert.Equal(t, len(ids), reported[i], "account %d", i)
	}
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, uint64) (func(), error) {
	return nil, errors.New("lock unavailable")
}

func TestDeltaDetector_LockFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, PollOptions{})
	id := env.track(t, "1", "alice")

	detector := NewDeltaDetector(env.snapshots, failingLocker{})
	_, err := detector.Apply(ctx, id, observedIDs("1001"))
	require.Error(t, err)

	known, err := env.snapshots.GetKnownFollowedIDs(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, known)
}

package service

import (
	"FollowTracker/internal/model"
	"FollowTracker/internal/pkg/database"
	"FollowTracker/internal/pkg/lock"
	"FollowTracker/internal/pkg/upstream"
	"FollowTracker/internal/repository"
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func observedIDs(ids ...string) []model.ObservedAccount {
	res := make([]model.ObservedAccount, 0, len(ids))
	for _, id := range ids {
		res = append(res, model.ObservedAccount{ExternalID: id, Handle: "user" + id, DisplayName: "User " + id})
	}
	return res
}

// fakeGraph 内存版上游接口
type fakeGraph struct {
	mu         sync.Mutex
	infos      map[string]*model.ObservedAccount
	followings map[string][]model.ObservedAccount
	failing    map[string]bool
	pageCalls  int
	allCalls   int
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		infos:      make(map[string]*model.ObservedAccount),
		followings: make(map[string][]model.ObservedAccount),
		failing:    make(map[string]bool),
	}
}

func (f *fakeGraph) addAccount(externalID, handle string, followings ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infos[strings.ToLower(handle)] = &model.ObservedAccount{ExternalID: externalID, Handle: handle, DisplayName: strings.ToUpper(handle)}
	f.followings[strings.ToLower(handle)] = observedIDs(followings...)
}

func (f *fakeGraph) setFollowings(handle string, followings ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followings[strings.ToLower(handle)] = observedIDs(followings...)
}

func (f *fakeGraph) setFailing(handle string, failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[strings.ToLower(handle)] = failing
}

func (f *fakeGraph) GetAccountInfo(_ context.Context, handle string) (*model.ObservedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.infos[strings.ToLower(handle)]
	if !ok {
		return nil, &upstream.Error{Op: "users/show", Status: http.StatusNotFound, Reason: "User not found"}
	}
	cp := *info
	return &cp, nil
}

func (f *fakeGraph) GetFollowingPage(_ context.Context, handle string, count int, _ int64) (*upstream.FollowingPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls++
	if f.failing[strings.ToLower(handle)] {
		return nil, &upstream.Error{Op: "friends/list", Status: http.StatusServiceUnavailable, Reason: "unavailable"}
	}
	users := f.followings[strings.ToLower(handle)]
	if count > 0 && len(users) > count {
		users = users[:count]
	}
	return &upstream.FollowingPage{Users: append([]model.ObservedAccount(nil), users...)}, nil
}

func (f *fakeGraph) GetAllFollowing(_ context.Context, handle string) ([]model.ObservedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allCalls++
	if f.failing[strings.ToLower(handle)] {
		return nil, &upstream.Error{Op: "friends/list", Status: http.StatusServiceUnavailable, Reason: "unavailable"}
	}
	return append([]model.ObservedAccount(nil), f.followings[strings.ToLower(handle)]...), nil
}

// fakeNotifier 记录每次推送内容
type fakeNotifier struct {
	mu       sync.Mutex
	ok       bool
	calls    int
	summary  string
	received []*model.UndeliveredNotification
}

func (f *fakeNotifier) Deliver(_ context.Context, summary string, items []*model.UndeliveredNotification) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.summary = summary
	f.received = items
	return f.ok
}

type testEnv struct {
	db        *gorm.DB
	accounts  repository.TrackedAccountRepo
	snapshots repository.SnapshotRepo
	ledger    NotificationLedger
	detector  DeltaDetector
	graph     *fakeGraph
	notifier  *fakeNotifier
	tracker   TrackerService
	poll      PollService
}

func newTestEnv(t *testing.T, opts PollOptions) *testEnv {
	t.Helper()
	db := newTestDB(t)
	env := &testEnv{
		db:        db,
		accounts:  repository.NewTrackedAccountRepo(db),
		snapshots: repository.NewSnapshotRepo(db),
		graph:     newFakeGraph(),
		notifier:  &fakeNotifier{ok: true},
	}
	env.ledger = NewNotificationLedger(repository.NewNotificationRepo(db))
	env.detector = NewDeltaDetector(env.snapshots, lock.NewKeyedLocker())
	env.tracker = NewTrackerService(env.accounts, env.snapshots, env.graph)
	env.poll = NewPollService(env.accounts, env.tracker, env.detector, env.ledger, env.notifier, env.graph, opts)
	return env
}

func (e *testEnv) track(t *testing.T, externalID, handle string, followings ...string) uint64 {
	t.Helper()
	e.graph.addAccount(externalID, handle, followings...)
	id, err := e.accounts.UpsertTrackedAccount(context.Background(), externalID, handle, handle)
	require.NoError(t, err)
	return id
}

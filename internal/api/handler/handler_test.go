package handler

import (
	"FollowTracker/internal/api/dto"
	"FollowTracker/internal/model"
	"FollowTracker/internal/pkg/database"
	"FollowTracker/internal/pkg/lock"
	"FollowTracker/internal/pkg/upstream"
	"FollowTracker/internal/repository"
	"FollowTracker/internal/service"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubGraph struct {
	accounts   map[string]model.ObservedAccount
	followings map[string][]model.ObservedAccount
}

func (s *stubGraph) GetAccountInfo(_ context.Context, handle string) (*model.ObservedAccount, error) {
	a, ok := s.accounts[strings.ToLower(handle)]
	if !ok {
		return nil, &upstream.Error{Op: "get_account_info", Status: http.StatusNotFound, Reason: "User not found"}
	}
	return &a, nil
}

func (s *stubGraph) GetFollowingPage(_ context.Context, handle string, _ int, _ int64) (*upstream.FollowingPage, error) {
	return &upstream.FollowingPage{Users: s.followings[strings.ToLower(handle)]}, nil
}

func (s *stubGraph) GetAllFollowing(_ context.Context, handle string) ([]model.ObservedAccount, error) {
	return s.followings[strings.ToLower(handle)], nil
}

type okNotifier struct{}

func (okNotifier) Deliver(context.Context, string, []*model.UndeliveredNotification) bool { return true }

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) (*gin.Engine, service.PollService, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	graph := &stubGraph{
		accounts: map[string]model.ObservedAccount{
			"alice": {ExternalID: "1", Handle: "alice", DisplayName: "Alice"},
		},
		followings: map[string][]model.ObservedAccount{
			"alice": {
				{ExternalID: "1001", Handle: "bob", DisplayName: "Bob"},
				{ExternalID: "1002", Handle: "carol", DisplayName: "Carol"},
			},
		},
	}

	accounts := repository.NewTrackedAccountRepo(db)
	snapshots := repository.NewSnapshotRepo(db)
	ledger := service.NewNotificationLedger(repository.NewNotificationRepo(db))
	tracker := service.NewTrackerService(accounts, snapshots, graph)
	detector := service.NewDeltaDetector(snapshots, lock.NewKeyedLocker())
	poll := service.NewPollService(accounts, tracker, detector, ledger, okNotifier{}, graph, service.PollOptions{PageSize: 200})

	accountH := NewTrackedAccountHandler(tracker, poll)
	notificationH := NewNotificationHandler(ledger)
	sweepH := NewSweepHandler(poll)

	r := gin.New()
	g := r.Group("/api")
	g.GET("/accounts", accountH.ListAccounts)
	g.POST("/accounts", accountH.AddAccount)
	g.DELETE("/accounts/:handle", accountH.RemoveAccount)
	g.GET("/accounts/:handle/followings", accountH.ListFollowings)
	g.POST("/accounts/:handle/update", accountH.UpdateAccount)
	g.POST("/sweep", sweepH.TriggerSweep)
	g.GET("/sweep/state", sweepH.GetState)
	g.GET("/notifications/undelivered", notificationH.ListUndelivered)
	g.POST("/notifications/delivered", notificationH.MarkDelivered)
	return r, poll, db
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestAccountEndpoints(t *testing.T) {
	r, _, _ := newTestRouter(t)

	_, env := doRequest(t, r, http.MethodPost, "/api/accounts", `{"handle":"@alice"}`)
	require.Equal(t, 200, env.Code, env.Message)
	var added dto.AccountResultDTO
	require.NoError(t, json.Unmarshal(env.Data, &added))
	assert.True(t, added.Success)
	assert.Equal(t, "alice", added.Account.Handle)

	_, env = doRequest(t, r, http.MethodPost, "/api/accounts", `{"handle":"ghost"}`)
	assert.Equal(t, 400, env.Code)

	_, env = doRequest(t, r, http.MethodPost, "/api/accounts", `{"handle":""}`)
	assert.Equal(t, 400, env.Code)

	_, env = doRequest(t, r, http.MethodPost, "/api/accounts", `not json`)
	assert.Equal(t, 400, env.Code)

	_, env = doRequest(t, r, http.MethodGet, "/api/accounts", "")
	require.Equal(t, 200, env.Code)
	var list []dto.TrackedAccountDTO
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	_, env = doRequest(t, r, http.MethodGet, "/api/accounts/ghost/followings", "")
	assert.Equal(t, 404, env.Code)

	_, env = doRequest(t, r, http.MethodDelete, "/api/accounts/ghost", "")
	assert.Equal(t, 404, env.Code)
	assert.Equal(t, service.ErrAccountNotTracked.Error(), env.Message)

	_, env = doRequest(t, r, http.MethodDelete, "/api/accounts/@alice", "")
	assert.Equal(t, 200, env.Code)
}

func TestRemoveAccount_StorageFailure(t *testing.T) {
	r, _, db := newTestRouter(t)

	_, env := doRequest(t, r, http.MethodPost, "/api/accounts", `{"handle":"alice"}`)
	require.Equal(t, 200, env.Code, env.Message)
	require.NoError(t, db.Migrator().DropTable(&model.PendingNotification{}))

	_, env = doRequest(t, r, http.MethodDelete, "/api/accounts/alice", "")
	assert.Equal(t, 500, env.Code)
	assert.Equal(t, service.ErrStorage.Error(), env.Message)
}

func TestUpdateAndNotificationEndpoints(t *testing.T) {
	r, _, _ := newTestRouter(t)

	_, env := doRequest(t, r, http.MethodPost, "/api/accounts/alice/update", "")
	require.Equal(t, 200, env.Code, env.Message)
	var update dto.AccountUpdateDTO
	require.NoError(t, json.Unmarshal(env.Data, &update))
	assert.Equal(t, 2, update.NewCount)

	_, env = doRequest(t, r, http.MethodGet, "/api/accounts/alice/followings", "")
	require.Equal(t, 200, env.Code)
	var edges []dto.FollowingEdgeDTO
	require.NoError(t, json.Unmarshal(env.Data, &edges))
	assert.Len(t, edges, 2)

	_, env = doRequest(t, r, http.MethodGet, "/api/notifications/undelivered", "")
	require.Equal(t, 200, env.Code)
	var rows []dto.NotificationDTO
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0].TrackedHandle)
	assert.Equal(t, "bob", rows[0].FollowedHandle)

	_, env = doRequest(t, r, http.MethodPost, "/api/notifications/delivered", `{"ids":[0]}`)
	assert.Equal(t, 400, env.Code)

	body, _ := json.Marshal(map[string][]uint64{"ids": {rows[0].ID}})
	_, env = doRequest(t, r, http.MethodPost, "/api/notifications/delivered", string(body))
	require.Equal(t, 200, env.Code)
	assert.JSONEq(t, `{"count":1}`, string(env.Data))

	_, env = doRequest(t, r, http.MethodGet, "/api/notifications/undelivered", "")
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	assert.Len(t, rows, 1)

	_, env = doRequest(t, r, http.MethodPost, "/api/accounts/ghost/update", "")
	assert.Equal(t, 400, env.Code)
}

func TestSweepEndpoints(t *testing.T) {
	r, poll, _ := newTestRouter(t)

	status, env := doRequest(t, r, http.MethodPost, "/api/sweep", "")
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, 202, env.Code)
	poll.Wait()

	_, env = doRequest(t, r, http.MethodGet, "/api/sweep/state", "")
	require.Equal(t, 200, env.Code)
	assert.JSONEq(t, `{"state":"idle"}`, string(env.Data))
}

package slack

import (
	"FollowTracker/internal/api/config"
	"FollowTracker/internal/model"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []*model.UndeliveredNotification {
	mk := func(id, tracked uint64, trackedHandle, handle, name string) *model.UndeliveredNotification {
		return &model.UndeliveredNotification{
			PendingNotification: model.PendingNotification{
				ID:                  id,
				TrackedAccountID:    tracked,
				FollowedExternalID:  handle + "-id",
				FollowedHandle:      handle,
				FollowedDisplayName: name,
			},
			TrackedHandle: trackedHandle,
		}
	}
	return []*model.UndeliveredNotification{
		mk(1, 1, "cz_binance", "vitalik", "Vitalik"),
		mk(2, 2, "hosseeb", "alice", "Alice"),
		mk(3, 1, "cz_binance", "bob", "Bob"),
	}
}

func TestBuildMessage(t *testing.T) {
	n := NewNotifier(config.SlackConfig{})
	n.now = func() time.Time { return time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC) }

	msg := n.BuildMessage("summary", sampleItems())
	assert.Equal(t, "summary", msg.Text)

	// header, summary, divider, 2 * (section, list, divider), context
	require.Len(t, msg.Blocks, 10)
	assert.Equal(t, "header", msg.Blocks[0].Type)
	assert.Equal(t, "*3* new followings detected across *2* tracked accounts.", msg.Blocks[1].Text.Text)
	assert.Equal(t, "*@cz_binance* started following *2* new accounts:", msg.Blocks[3].Text.Text)
	assert.Equal(t,
		"• <https://twitter.com/vitalik|@vitalik> - Vitalik\n• <https://twitter.com/bob|@bob> - Bob\n",
		msg.Blocks[4].Text.Text)
	assert.Equal(t, "*@hosseeb* started following *1* new accounts:", msg.Blocks[6].Text.Text)
	assert.Equal(t, "context", msg.Blocks[9].Type)
	assert.Equal(t, "Detected at 2024-05-01 08:30:00 UTC", msg.Blocks[9].Elements[0].Text)
}

func TestDeliver_PostsToWebhook(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	n := NewNotifier(config.SlackConfig{WebhookURL: srv.URL, Timeout: 5})
	ok := n.Deliver(context.Background(), "🔔 3 new followings", sampleItems())
	assert.True(t, ok)
	assert.Equal(t, "🔔 3 new followings", got.Text)
	assert.NotEmpty(t, got.Blocks)
}

func TestDeliver_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("invalid_token"))
	}))
	defer srv.Close()

	ctx := context.Background()
	assert.False(t, NewNotifier(config.SlackConfig{WebhookURL: srv.URL}).Deliver(ctx, "s", sampleItems()))
	assert.False(t, NewNotifier(config.SlackConfig{WebhookURL: "http://127.0.0.1:1"}).Deliver(ctx, "s", sampleItems()))
}

func TestDeliver_MissingWebhookOrEmpty(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	ctx := context.Background()
	assert.False(t, NewNotifier(config.SlackConfig{}).Deliver(ctx, "s", sampleItems()))
	assert.True(t, NewNotifier(config.SlackConfig{WebhookURL: srv.URL}).Deliver(ctx, "s", nil))
	assert.Zero(t, hits.Load())
}

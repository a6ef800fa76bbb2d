package slack

import (
	"FollowTracker/internal/api/config"
	"FollowTracker/internal/model"
	"FollowTracker/internal/pkg/consts"
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type Block struct {
	Type     string  `json:"type"`
	Text     *Text   `json:"text,omitempty"`
	Elements []*Text `json:"elements,omitempty"`
}

type Message struct {
	Text   string   `json:"text"`
	Blocks []*Block `json:"blocks,omitempty"`
}

// Notifier Slack incoming webhook 推送
type Notifier struct {
	webhookURL string
	httpClient *resty.Client
	now        func() time.Time
}

func NewNotifier(cfg config.SlackConfig) *Notifier {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	return &Notifier{
		webhookURL: cfg.WebhookURL,
		httpClient: client,
		now:        time.Now,
	}
}

// Deliver 推送新增关注；未配置 webhook 时只打印日志并返回 false，记录保持未推送
func (s *Notifier) Deliver(ctx context.Context, summary string, items []*model.UndeliveredNotification) bool {
	if len(items) == 0 {
		log.InfoContext(ctx, "no new followings to notify about")
		return true
	}

	msg := s.BuildMessage(summary, items)
	if s.webhookURL == "" {
		log.WarnContext(ctx, "no slack webhook configured, would send", "text", msg.Text)
		return false
	}

	return s.Send(ctx, msg)
}

// Send 发送消息，非 2xx 视为失败
func (s *Notifier) Send(ctx context.Context, msg *Message) bool {
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(msg).
		Post(s.webhookURL)
	if err != nil {
		log.ErrorContext(ctx, "error sending slack notification", "err", err)
		return false
	}
	if resp.IsError() {
		log.ErrorContext(ctx, "failed to send slack notification",
			"status", resp.StatusCode(),
			"body", resp.String())
		return false
	}

	log.InfoContext(ctx, "slack notification sent successfully")
	return true
}

// BuildMessage 按被追踪账号分组，分组顺序与首次出现顺序一致
func (s *Notifier) BuildMessage(summary string, items []*model.UndeliveredNotification) *Message {
	order := make([]string, 0)
	groups := make(map[string][]*model.UndeliveredNotification)
	for _, it := range items {
		if _, ok := groups[it.TrackedHandle]; !ok {
			order = append(order, it.TrackedHandle)
		}
		groups[it.TrackedHandle] = append(groups[it.TrackedHandle], it)
	}

	blocks := []*Block{
		{
			Type: "header",
			Text: &Text{Type: "plain_text", Text: "🔔 New Followings Detected", Emoji: true},
		},
		{
			Type: "section",
			Text: &Text{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*%d* new followings detected across *%d* tracked accounts.", len(items), len(order)),
			},
		},
		{Type: "divider"},
	}

	for _, handle := range order {
		followings := groups[handle]
		blocks = append(blocks, &Block{
			Type: "section",
			Text: &Text{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*@%s* started following *%d* new accounts:", handle, len(followings)),
			},
		})

		var sb strings.Builder
		for _, f := range followings {
			sb.WriteString(fmt.Sprintf("• <%s%s|@%s> - %s\n",
				consts.ProfileURLPrefix, f.FollowedHandle, f.FollowedHandle, f.FollowedDisplayName))
		}
		blocks = append(blocks,
			&Block{Type: "section", Text: &Text{Type: "mrkdwn", Text: sb.String()}},
			&Block{Type: "divider"},
		)
	}

	blocks = append(blocks, &Block{
		Type: "context",
		Elements: []*Text{
			{Type: "mrkdwn", Text: "Detected at " + s.now().UTC().Format("2006-01-02 15:04:05") + " UTC"},
		},
	})

	return &Message{Text: summary, Blocks: blocks}
}

package upstream

import (
	"FollowTracker/internal/model"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

const (
	MaxPageSize = 200
	FirstCursor = int64(-1)
)

// FollowingPage 一页关注列表
type FollowingPage struct {
	Users      []model.ObservedAccount
	NextCursor int64
}

type userPayload struct {
	ID         json.Number `json:"id"`
	IDStr      string      `json:"id_str"`
	ScreenName string      `json:"screen_name"`
	Name       string      `json:"name"`
}

type apiErrorItem struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type userInfoPayload struct {
	userPayload
	Error  string         `json:"error"`
	Errors []apiErrorItem `json:"errors"`
}

type followingPayload struct {
	Users         *[]userPayload `json:"users"`
	NextCursor    json.Number    `json:"next_cursor"`
	NextCursorStr string         `json:"next_cursor_str"`
	Error         string         `json:"error"`
	Errors        []apiErrorItem `json:"errors"`
}

func (p userPayload) externalID() string {
	if p.IDStr != "" {
		return p.IDStr
	}
	return p.ID.String()
}

func (p userPayload) toObserved() model.ObservedAccount {
	return model.ObservedAccount{
		ExternalID:  p.externalID(),
		Handle:      p.ScreenName,
		DisplayName: p.Name,
	}
}

// errorReason 提取响应体中的错误信息，无错误返回空串
func errorReason(single string, items []apiErrorItem) string {
	if single != "" {
		return single
	}
	if len(items) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(items))
	for _, it := range items {
		msgs = append(msgs, strconv.Itoa(it.Code)+": "+it.Message)
	}
	return strings.Join(msgs, "; ")
}

func (p followingPayload) nextCursor() int64 {
	raw := p.NextCursorStr
	if raw == "" {
		raw = p.NextCursor.String()
	}
	if raw == "" {
		return 0
	}
	c, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return c
}

package upstream

import (
	"FollowTracker/internal/api/config"
	"FollowTracker/internal/model"
	"FollowTracker/internal/pkg/util"
	"context"
	log "log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	userShowPath    = "/1.1/users/show.json"
	friendsListPath = "/1.1/friends/list.json"
)

// Client 社交图谱 API 客户端
type Client struct {
	httpClient *resty.Client
	pageSize   int
}

func NewClient(cfg config.UpstreamConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetHeader("apikey", cfg.ApiKey).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		pageSize:   clampPageSize(cfg.PageSize),
	}
}

// PageSize 单页拉取数量
func (s *Client) PageSize() int {
	return s.pageSize
}

// GetAccountInfo 根据 handle 获取账号信息
func (s *Client) GetAccountInfo(ctx context.Context, handle string) (*model.ObservedAccount, error) {
	const op = "get_account_info"
	handle = util.NormalizeHandle(handle)

	body, err := s.get(ctx, op, userShowPath, map[string]string{
		"screen_name": handle,
	})
	if err != nil {
		return nil, err
	}

	var payload userInfoPayload
	if err = json.Unmarshal(body, &payload); err != nil {
		return nil, &Error{Op: op, Reason: "malformed response", Err: errors.Wrap(err, "decode user info")}
	}
	if reason := errorReason(payload.Error, payload.Errors); reason != "" {
		return nil, &Error{Op: op, Reason: reason}
	}

	account := payload.toObserved()
	if account.ExternalID == "" {
		return nil, &Error{Op: op, Reason: "invalid user info response"}
	}
	return &account, nil
}

// GetFollowingPage 获取一页关注列表，count 上限 200
func (s *Client) GetFollowingPage(ctx context.Context, handle string, count int, cursor int64) (*FollowingPage, error) {
	const op = "get_following_page"
	handle = util.NormalizeHandle(handle)

	params := map[string]string{
		"screen_name": handle,
		"count":       strconv.Itoa(clampPageSize(count)),
	}
	if cursor != 0 {
		params["cursor"] = strconv.FormatInt(cursor, 10)
	}

	body, err := s.get(ctx, op, friendsListPath, params)
	if err != nil {
		return nil, err
	}

	var payload followingPayload
	if err = json.Unmarshal(body, &payload); err != nil {
		return nil, &Error{Op: op, Reason: "malformed response", Err: errors.Wrap(err, "decode following page")}
	}
	if reason := errorReason(payload.Error, payload.Errors); reason != "" {
		return nil, &Error{Op: op, Reason: reason}
	}
	if payload.Users == nil {
		return nil, &Error{Op: op, Reason: "invalid response format"}
	}

	page := &FollowingPage{
		Users:      make([]model.ObservedAccount, 0, len(*payload.Users)),
		NextCursor: payload.nextCursor(),
	}
	for _, u := range *payload.Users {
		account := u.toObserved()
		if account.ExternalID == "" {
			log.WarnContext(ctx, "skip following entry without id", "handle", handle, "entry", u.ScreenName)
			continue
		}
		page.Users = append(page.Users, account)
	}
	return page, nil
}

// GetAllFollowing 按游标拉取完整关注列表，遇到错误时返回已获取部分
func (s *Client) GetAllFollowing(ctx context.Context, handle string) ([]model.ObservedAccount, error) {
	handle = util.NormalizeHandle(handle)

	all := make([]model.ObservedAccount, 0)
	cursor := FirstCursor
	for cursor != 0 {
		page, err := s.GetFollowingPage(ctx, handle, s.pageSize, cursor)
		if err != nil {
			if len(all) == 0 {
				return nil, err
			}
			log.ErrorContext(ctx, "error retrieving following list, keep partial result",
				"handle", handle, "retrieved", len(all), "err", err)
			break
		}
		all = append(all, page.Users...)
		cursor = page.NextCursor
		log.InfoContext(ctx, "retrieved following page", "handle", handle, "count", len(page.Users), "next_cursor", cursor)
	}

	log.InfoContext(ctx, "retrieved complete following list", "handle", handle, "total", len(all))
	return all, nil
}

func (s *Client) get(ctx context.Context, op, path string, params map[string]string) ([]byte, error) {
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		log.ErrorContext(ctx, "upstream request error", "op", op, "err", err)
		return nil, &Error{Op: op, Reason: err.Error(), Err: errors.Wrapf(err, "request %s", path)}
	}

	if resp.StatusCode() != http.StatusOK {
		log.ErrorContext(ctx, "upstream request failed",
			"op", op,
			"status", resp.StatusCode(),
			"body", string(resp.Body()))
		return nil, &Error{Op: op, Status: resp.StatusCode(), Reason: http.StatusText(resp.StatusCode())}
	}
	return resp.Body(), nil
}

func clampPageSize(count int) int {
	if count <= 0 || count > MaxPageSize {
		return MaxPageSize
	}
	return count
}

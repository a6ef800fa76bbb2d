package service

import (
	"FollowTracker/internal/model"
	"context"
	"fmt"
	log "log/slog"
)

// Notifier 推送未送达的新增关注；失败时返回 false，不抛出
type Notifier interface {
	Deliver(ctx context.Context, summary string, items []*model.UndeliveredNotification) bool
}

// MultiNotifier 依次推送到全部下游，全部成功才算成功
type MultiNotifier struct {
	notifiers []Notifier
}

func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

func (s *MultiNotifier) Deliver(ctx context.Context, summary string, items []*model.UndeliveredNotification) bool {
	if len(items) == 0 {
		return true
	}
	ok := true
	for i, n := range s.notifiers {
		if !n.Deliver(ctx, summary, items) {
			log.WarnContext(ctx, "notifier delivery failed", "index", i, "type", fmt.Sprintf("%T", n))
			ok = false
		}
	}
	return ok
}

// CountTrackedAccounts 统计涉及的被追踪账号数
func CountTrackedAccounts(items []*model.UndeliveredNotification) int {
	set := make(map[uint64]struct{})
	for _, it := range items {
		set[it.TrackedAccountID] = struct{}{}
	}
	return len(set)
}

// BuildSummary 推送摘要文本
func BuildSummary(items []*model.UndeliveredNotification) string {
	return fmt.Sprintf("🔔 %d new followings detected across %d tracked accounts.",
		len(items), CountTrackedAccounts(items))
}

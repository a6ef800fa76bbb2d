package api

import "FollowTracker/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	TrackedAccountHandler *handler.TrackedAccountHandler
	NotificationHandler   *handler.NotificationHandler
	SweepHandler          *handler.SweepHandler
}

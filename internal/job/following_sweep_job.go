package job

import (
	"FollowTracker/internal/pkg/consts"
	"FollowTracker/internal/pkg/logger"
	"FollowTracker/internal/service"
	"context"
	log "log/slog"
)

// FollowingSweepJob 定时轮询全部追踪账号
type FollowingSweepJob struct {
	pollSvc service.PollService
	parent  context.Context
}

func NewFollowingSweepJob(pollSvc service.PollService) *FollowingSweepJob {
	return &FollowingSweepJob{
		pollSvc: pollSvc,
		parent:  context.Background(),
	}
}

// WithParent 设置父 context，取消后进行中的轮询会被放弃
func (s *FollowingSweepJob) WithParent(ctx context.Context) *FollowingSweepJob {
	s.parent = ctx
	return s
}

func (s *FollowingSweepJob) Run() {
	ctx := logger.WithTrace(s.parent, consts.TraceSweepPrefix)

	res, err := s.pollSvc.Sweep(ctx)
	if err != nil {
		log.ErrorContext(ctx, "scheduled sweep finished with error", "err", err)
		return
	}

	log.InfoContext(ctx, "scheduled sweep success",
		"accounts", res.Accounts,
		"new_followings", res.TotalNew,
		"delivered", res.Delivered)
}

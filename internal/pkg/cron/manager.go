package cron

import (
	"FollowTracker/internal/job"
	"context"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine      *cron.Cron
	sweepJob    cron.Job
	spec        string
	stopTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	primed sync.WaitGroup
}

// NewCronManager interval 为 Go duration 格式，如 24h、30m
func NewCronManager(sweepJob *job.FollowingSweepJob, interval string, stopTimeout time.Duration) (*Manager, error) {
	d, err := time.ParseDuration(interval)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep interval %q: %w", interval, err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("invalid sweep interval %q: must be positive", interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sweepJob.WithParent(ctx)

	// 上一轮未结束时跳过本轮
	wrapped := cron.NewChain(cron.SkipIfStillRunning(slogAdapter{})).Then(sweepJob)

	return &Manager{
		engine:      cron.New(cron.WithLogger(slogAdapter{})),
		sweepJob:    wrapped,
		spec:        "@every " + d.String(),
		stopTimeout: stopTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.spec, s.sweepJob); err != nil {
		return err
	}
	return nil
}

// Start 启动调度并立即执行一轮
func (s *Manager) Start() {
	log.Info("Cron engine started", "spec", s.spec)
	s.engine.Start()

	s.primed.Add(1)
	go func() {
		defer s.primed.Done()
		s.sweepJob.Run()
	}()
}

// Stop 停止调度并等待进行中的轮询，超时后取消
func (s *Manager) Stop() {
	log.Info("Cron engine stopping")
	stopCtx := s.engine.Stop()

	done := make(chan struct{})
	go func() {
		<-stopCtx.Done()
		s.primed.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.stopTimeout):
		log.Warn("sweep still running after stop timeout, abandoning", "timeout", s.stopTimeout)
		s.cancel()
		<-done
	}
	s.cancel()
	log.Info("Cron engine stopped")
}

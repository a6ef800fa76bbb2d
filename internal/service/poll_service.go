package service

import (
	"FollowTracker/internal/api/dto"
	"FollowTracker/internal/model"
	"FollowTracker/internal/pkg/consts"
	"FollowTracker/internal/pkg/logger"
	"FollowTracker/internal/pkg/upstream"
	"FollowTracker/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type PollState int32

const (
	StateIdle PollState = iota
	StatePolling
	StateNotifying
)

func (p PollState) String() string {
	switch p {
	case StatePolling:
		return "polling"
	case StateNotifying:
		return "notifying"
	default:
		return "idle"
	}
}

// PollOptions 轮询参数
type PollOptions struct {
	PageSize       int
	AccountPause   time.Duration
	FullPagination bool
}

// SweepResult 一次全量轮询的结果
type SweepResult struct {
	Accounts    int               `json:"accounts"`
	NewEdges    map[string]int    `json:"new_edges"`
	TotalNew    int               `json:"total_new"`
	Failed      map[string]string `json:"failed"`
	Undelivered int               `json:"undelivered"`
	Delivered   int64             `json:"delivered"`
}

type PollService interface {
	Sweep(ctx context.Context) (*SweepResult, error)
	TriggerSweep(ctx context.Context)
	UpdateAccount(ctx context.Context, handle string) (*dto.AccountUpdateDTO, error)
	State() PollState
	Wait()
}

type PollServiceImpl struct {
	accountRepo repository.TrackedAccountRepo
	trackerSvc  TrackerService
	detector    DeltaDetector
	ledger      NotificationLedger
	notifier    Notifier
	graph       SocialGraph
	opts        PollOptions

	// 各阶段中的轮询数，并发轮询互不覆盖
	polling   atomic.Int32
	notifying atomic.Int32
	inflight  sync.WaitGroup
}

func NewPollService(
	accountRepo repository.TrackedAccountRepo,
	trackerSvc TrackerService,
	detector DeltaDetector,
	ledger NotificationLedger,
	notifier Notifier,
	graph SocialGraph,
	opts PollOptions,
) PollService {
	return &PollServiceImpl{
		accountRepo: accountRepo,
		trackerSvc:  trackerSvc,
		detector:    detector,
		ledger:      ledger,
		notifier:    notifier,
		graph:       graph,
		opts:        opts,
	}
}

// State 有轮询处于拉取阶段时返回 Polling，其次 Notifying，全部结束后为 Idle
func (s *PollServiceImpl) State() PollState {
	switch {
	case s.polling.Load() > 0:
		return StatePolling
	case s.notifying.Load() > 0:
		return StateNotifying
	default:
		return StateIdle
	}
}

// setPhase 将一次轮询从 *cur 切换到 next
func (s *PollServiceImpl) setPhase(cur *PollState, next PollState) {
	if c := s.phaseCounter(*cur); c != nil {
		c.Add(-1)
	}
	if c := s.phaseCounter(next); c != nil {
		c.Add(1)
	}
	*cur = next
}

func (s *PollServiceImpl) phaseCounter(p PollState) *atomic.Int32 {
	switch p {
	case StatePolling:
		return &s.polling
	case StateNotifying:
		return &s.notifying
	default:
		return nil
	}
}

// Sweep 轮询全部追踪账号并推送未送达的新增关注。
// 单个账号失败只记录日志并跳过；推送失败时返回 ErrDeliveryFailed，记录保持未推送待下次重试。
func (s *PollServiceImpl) Sweep(ctx context.Context) (*SweepResult, error) {
	s.inflight.Add(1)
	defer s.inflight.Done()

	phase := StateIdle
	defer s.setPhase(&phase, StateIdle)

	log.InfoContext(ctx, "running sweep of following lists")

	accounts, err := s.accountRepo.ListTrackedAccounts(ctx)
	if err != nil {
		log.ErrorContext(ctx, "list tracked accounts error", "err", err)
		return nil, ErrStorage
	}

	result := &SweepResult{
		Accounts: len(accounts),
		NewEdges: make(map[string]int, len(accounts)),
		Failed:   make(map[string]string),
	}

	s.setPhase(&phase, StatePolling)
	for i, account := range accounts {
		if i > 0 && s.opts.AccountPause > 0 {
			select {
			case <-ctx.Done():
				log.WarnContext(ctx, "sweep abandoned", "processed", i, "total", len(accounts))
				return result, ctx.Err()
			case <-time.After(s.opts.AccountPause):
			}
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		log.InfoContext(ctx, "updating following list", "handle", account.Handle)
		created, err := s.updateTracked(ctx, account)
		if err != nil {
			log.ErrorContext(ctx, "failed to update following list, skipped",
				"handle", account.Handle,
				"err", err)
			result.Failed[account.Handle] = err.Error()
			continue
		}
		result.NewEdges[account.Handle] = len(created)
		result.TotalNew += len(created)
	}

	s.setPhase(&phase, StateNotifying)
	delivered, undelivered, err := s.deliverPending(ctx)
	result.Undelivered = undelivered
	result.Delivered = delivered
	if err != nil {
		return result, err
	}

	log.InfoContext(ctx, "sweep completed",
		"accounts", result.Accounts,
		"total_new", result.TotalNew,
		"failed", len(result.Failed),
		"delivered", result.Delivered)
	return result, nil
}

// TriggerSweep 后台执行一次全量轮询，不等待结果
func (s *PollServiceImpl) TriggerSweep(ctx context.Context) {
	traceCtx := logger.WithTrace(context.Background(), consts.TraceManualPrefix)
	log.InfoContext(ctx, "sweep triggered in background", "sweep_trace_id", logger.TraceID(traceCtx))

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if _, err := s.Sweep(traceCtx); err != nil {
			log.ErrorContext(traceCtx, "background sweep finished with error", "err", err)
		}
	}()
}

// Wait 等待进行中的轮询结束
func (s *PollServiceImpl) Wait() {
	s.inflight.Wait()
}

// UpdateAccount 即时更新单个账号并同步返回新增关注，不触发推送
func (s *PollServiceImpl) UpdateAccount(ctx context.Context, handle string) (*dto.AccountUpdateDTO, error) {
	account, err := s.trackerSvc.EnsureTracked(ctx, handle)
	if err != nil {
		return nil, err
	}

	created, err := s.updateTracked(ctx, account)
	if err != nil {
		log.ErrorContext(ctx, "failed to update following list", "handle", account.Handle, "err", err)
		if upstream.IsUpstreamError(err) {
			return nil, ErrUpstream
		}
		return nil, ErrStorage
	}

	log.InfoContext(ctx, "updated following list", "handle", account.Handle, "new", len(created))
	return &dto.AccountUpdateDTO{
		TrackedAccountID: account.ID,
		Handle:           account.Handle,
		NewCount:         len(created),
		NewFollowings:    toEdgeDTOs(created),
	}, nil
}

func (s *PollServiceImpl) updateTracked(ctx context.Context, account *model.TrackedAccount) ([]*model.FollowingEdge, error) {
	observed, err := s.fetchFollowing(ctx, account.Handle)
	if err != nil {
		return nil, err
	}
	return s.detector.Apply(ctx, account.ID, observed)
}

func (s *PollServiceImpl) fetchFollowing(ctx context.Context, handle string) ([]model.ObservedAccount, error) {
	if s.opts.FullPagination {
		return s.graph.GetAllFollowing(ctx, handle)
	}
	page, err := s.graph.GetFollowingPage(ctx, handle, s.opts.PageSize, upstream.FirstCursor)
	if err != nil {
		return nil, err
	}
	return page.Users, nil
}

// deliverPending 读取全部未推送记录并推送，成功后标记已推送
func (s *PollServiceImpl) deliverPending(ctx context.Context) (int64, int, error) {
	pending, err := s.ledger.ListUndelivered(ctx)
	if err != nil {
		log.ErrorContext(ctx, "list undelivered notifications error", "err", err)
		return 0, 0, ErrStorage
	}
	if len(pending) == 0 {
		log.InfoContext(ctx, "no new followings to notify about")
		return 0, 0, nil
	}

	log.InfoContext(ctx, "found undelivered new followings", "count", len(pending))
	if !s.notifier.Deliver(ctx, BuildSummary(pending), pending) {
		log.ErrorContext(ctx, "failed to send notification, followings will remain undelivered", "count", len(pending))
		return 0, len(pending), ErrDeliveryFailed
	}

	ids := make([]uint64, 0, len(pending))
	for _, p := range pending {
		ids = append(ids, p.ID)
	}
	affected, err := s.ledger.MarkDelivered(ctx, ids)
	if err != nil {
		log.ErrorContext(ctx, "mark notifications delivered error", "err", err)
		return 0, len(pending), errors.Join(ErrStorage, err)
	}

	log.InfoContext(ctx, "marked followings as delivered", "count", affected)
	return affected, len(pending), nil
}

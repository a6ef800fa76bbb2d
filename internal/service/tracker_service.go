package service

import (
	"FollowTracker/internal/api/dto"
	"FollowTracker/internal/model"
	"FollowTracker/internal/pkg/upstream"
	"FollowTracker/internal/pkg/util"
	"FollowTracker/internal/repository"
	"context"
	"fmt"
	log "log/slog"

	"github.com/jinzhu/copier"
)

// SocialGraph 上游社交图谱接口
type SocialGraph interface {
	GetAccountInfo(ctx context.Context, handle string) (*model.ObservedAccount, error)
	GetFollowingPage(ctx context.Context, handle string, count int, cursor int64) (*upstream.FollowingPage, error)
	GetAllFollowing(ctx context.Context, handle string) ([]model.ObservedAccount, error)
}

type TrackerService interface {
	ListAccounts(ctx context.Context) ([]*dto.TrackedAccountDTO, error)
	AddAccount(ctx context.Context, handle string) *dto.AccountResultDTO
	RemoveAccount(ctx context.Context, handle string) (*dto.AccountResultDTO, error)
	ListFollowings(ctx context.Context, handle string) ([]*dto.FollowingEdgeDTO, error)
	EnsureTracked(ctx context.Context, handle string) (*model.TrackedAccount, error)
	SeedDefaults(ctx context.Context, handles []string)
}

type TrackerServiceImpl struct {
	accountRepo  repository.TrackedAccountRepo
	snapshotRepo repository.SnapshotRepo
	graph        SocialGraph
}

func NewTrackerService(
	accountRepo repository.TrackedAccountRepo,
	snapshotRepo repository.SnapshotRepo,
	graph SocialGraph,
) TrackerService {
	return &TrackerServiceImpl{
		accountRepo:  accountRepo,
		snapshotRepo: snapshotRepo,
		graph:        graph,
	}
}

func (s *TrackerServiceImpl) ListAccounts(ctx context.Context) ([]*dto.TrackedAccountDTO, error) {
	accounts, err := s.accountRepo.ListTrackedAccounts(ctx)
	if err != nil {
		log.ErrorContext(ctx, "list tracked accounts error", "err", err)
		return nil, ErrStorage
	}
	res := make([]*dto.TrackedAccountDTO, 0, len(accounts))
	for _, a := range accounts {
		res = append(res, toAccountDTO(a))
	}
	return res, nil
}

// AddAccount 通过上游接口解析 handle 后加入追踪，重复添加返回已有记录
func (s *TrackerServiceImpl) AddAccount(ctx context.Context, handle string) *dto.AccountResultDTO {
	handle = util.NormalizeHandle(handle)
	account, err := s.EnsureTracked(ctx, handle)
	if err != nil {
		return &dto.AccountResultDTO{
			Success: false,
			Message: fmt.Sprintf("Failed to add account %s: %s", handle, err.Error()),
		}
	}
	return &dto.AccountResultDTO{
		Success: true,
		Message: fmt.Sprintf("Successfully added account @%s to tracking list.", account.Handle),
		Account: toAccountDTO(account),
	}
}

// EnsureTracked 返回已追踪的账号，未追踪则通过上游接口解析后新增
func (s *TrackerServiceImpl) EnsureTracked(ctx context.Context, handle string) (*model.TrackedAccount, error) {
	handle = util.NormalizeHandle(handle)
	if handle == "" {
		return nil, ErrHandleEmpty
	}

	info, err := s.graph.GetAccountInfo(ctx, handle)
	if err != nil {
		log.ErrorContext(ctx, "failed to resolve account", "handle", handle, "err", err)
		return nil, ErrAccountLookup
	}

	id, err := s.accountRepo.UpsertTrackedAccount(ctx, info.ExternalID, info.Handle, info.DisplayName)
	if err != nil {
		log.ErrorContext(ctx, "upsert tracked account error", "handle", handle, "err", err)
		return nil, ErrStorage
	}

	account, err := s.accountRepo.GetTrackedAccountByID(ctx, id)
	if err != nil || account == nil {
		log.ErrorContext(ctx, "reload tracked account error", "id", id, "err", err)
		return nil, ErrStorage
	}

	log.InfoContext(ctx, "account added to tracking list", "handle", account.Handle, "id", account.ID)
	return account, nil
}

// RemoveAccount 移除追踪账号及其全部关注关系与待推送记录。
// 失败时同时返回结果与 ErrAccountNotTracked / ErrStorage
func (s *TrackerServiceImpl) RemoveAccount(ctx context.Context, handle string) (*dto.AccountResultDTO, error) {
	handle = util.NormalizeHandle(handle)
	failed := &dto.AccountResultDTO{
		Success: false,
		Message: fmt.Sprintf("Failed to remove account @%s from tracking list.", handle),
	}

	account, err := s.accountRepo.GetTrackedAccountByHandle(ctx, handle)
	if err != nil {
		log.ErrorContext(ctx, "lookup tracked account error", "handle", handle, "err", err)
		return failed, ErrStorage
	}
	if account == nil {
		return &dto.AccountResultDTO{
			Success: false,
			Message: fmt.Sprintf("Account @%s is not being tracked.", handle),
		}, ErrAccountNotTracked
	}

	if err = s.accountRepo.RemoveTrackedAccount(ctx, account.ID); err != nil {
		log.ErrorContext(ctx, "remove tracked account error", "handle", handle, "err", err)
		return failed, ErrStorage
	}

	log.InfoContext(ctx, "account removed from tracking list", "handle", account.Handle)
	return &dto.AccountResultDTO{
		Success: true,
		Message: fmt.Sprintf("Successfully removed account @%s from tracking list.", account.Handle),
	}, nil
}

func (s *TrackerServiceImpl) ListFollowings(ctx context.Context, handle string) ([]*dto.FollowingEdgeDTO, error) {
	account, err := s.accountRepo.GetTrackedAccountByHandle(ctx, util.NormalizeHandle(handle))
	if err != nil {
		return nil, ErrStorage
	}
	if account == nil {
		return nil, ErrAccountNotTracked
	}

	edges, err := s.snapshotRepo.ListEdges(ctx, account.ID)
	if err != nil {
		log.ErrorContext(ctx, "list following edges error", "handle", handle, "err", err)
		return nil, ErrStorage
	}
	return toEdgeDTOs(edges), nil
}

// SeedDefaults 启动时加入默认追踪账号，失败只记录日志
func (s *TrackerServiceImpl) SeedDefaults(ctx context.Context, handles []string) {
	for _, h := range handles {
		log.InfoContext(ctx, "adding default account to tracking list", "handle", h)
		if res := s.AddAccount(ctx, h); !res.Success {
			log.WarnContext(ctx, "failed to add default account", "handle", h, "reason", res.Message)
		}
	}
}

func toAccountDTO(a *model.TrackedAccount) *dto.TrackedAccountDTO {
	d := &dto.TrackedAccountDTO{}
	_ = copier.Copy(d, a)
	return d
}

func toEdgeDTOs(edges []*model.FollowingEdge) []*dto.FollowingEdgeDTO {
	res := make([]*dto.FollowingEdgeDTO, 0, len(edges))
	for _, e := range edges {
		d := &dto.FollowingEdgeDTO{}
		_ = copier.Copy(d, e)
		res = append(res, d)
	}
	return res
}

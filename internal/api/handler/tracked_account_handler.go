package handler

import (
	"FollowTracker/internal/api/dto"
	"FollowTracker/internal/pkg/response"
	"FollowTracker/internal/pkg/util"
	"FollowTracker/internal/service"

	"github.com/gin-gonic/gin"
)

type TrackedAccountHandler struct {
	trackerSvc service.TrackerService
	pollSvc    service.PollService
}

func NewTrackedAccountHandler(trackerSvc service.TrackerService, pollSvc service.PollService) *TrackedAccountHandler {
	return &TrackedAccountHandler{
		trackerSvc: trackerSvc,
		pollSvc:    pollSvc,
	}
}

func (s *TrackedAccountHandler) ListAccounts(c *gin.Context) {
	accounts, err := s.trackerSvc.ListAccounts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, accounts)
}

func (s *TrackedAccountHandler) AddAccount(c *gin.Context) {
	var req dto.AddAccountDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	req.Handle = util.NormalizeHandle(req.Handle)
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	res := s.trackerSvc.AddAccount(c.Request.Context(), req.Handle)
	if !res.Success {
		response.Fail(c, response.BadRequest, res.Message)
		return
	}
	response.Success(c, res)
}

func (s *TrackedAccountHandler) RemoveAccount(c *gin.Context) {
	handle := util.NormalizeHandle(c.Param("handle"))
	if handle == "" {
		response.Error(c, service.ErrHandleEmpty)
		return
	}

	res, err := s.trackerSvc.RemoveAccount(c.Request.Context(), handle)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *TrackedAccountHandler) ListFollowings(c *gin.Context) {
	edges, err := s.trackerSvc.ListFollowings(c.Request.Context(), c.Param("handle"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, edges)
}

// UpdateAccount 同步更新单个账号，未追踪时先加入追踪
func (s *TrackedAccountHandler) UpdateAccount(c *gin.Context) {
	res, err := s.pollSvc.UpdateAccount(c.Request.Context(), c.Param("handle"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

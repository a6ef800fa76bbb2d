package handler

import (
	"FollowTracker/internal/api/dto"
	"FollowTracker/internal/pkg/response"
	"FollowTracker/internal/service"

	"github.com/gin-gonic/gin"
)

type SweepHandler struct {
	pollSvc service.PollService
}

func NewSweepHandler(pollSvc service.PollService) *SweepHandler {
	return &SweepHandler{pollSvc: pollSvc}
}

// TriggerSweep 后台执行一次全量轮询，立即返回
func (s *SweepHandler) TriggerSweep(c *gin.Context) {
	s.pollSvc.TriggerSweep(c.Request.Context())
	response.Accept(c, "Update process started in background")
}

func (s *SweepHandler) GetState(c *gin.Context) {
	response.Success(c, &dto.SweepStateDTO{State: s.pollSvc.State().String()})
}

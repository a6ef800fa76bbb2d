package handler

import (
	"FollowTracker/internal/api/dto"
	"FollowTracker/internal/pkg/response"
	"FollowTracker/internal/pkg/util"
	"FollowTracker/internal/service"
	log "log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

type NotificationHandler struct {
	ledger service.NotificationLedger
}

func NewNotificationHandler(ledger service.NotificationLedger) *NotificationHandler {
	return &NotificationHandler{ledger: ledger}
}

func (s *NotificationHandler) ListUndelivered(c *gin.Context) {
	rows, err := s.ledger.ListUndelivered(c.Request.Context())
	if err != nil {
		log.ErrorContext(c.Request.Context(), "list undelivered notifications error", "err", err)
		response.Error(c, service.ErrStorage)
		return
	}

	res := make([]*dto.NotificationDTO, 0, len(rows))
	if err = copier.Copy(&res, &rows); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *NotificationHandler) MarkDelivered(c *gin.Context) {
	var req dto.MarkDeliveredDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	affected, err := s.ledger.MarkDelivered(c.Request.Context(), req.IDs)
	if err != nil {
		log.ErrorContext(c.Request.Context(), "mark notifications delivered error", "err", err)
		response.Error(c, service.ErrStorage)
		return
	}
	response.Success(c, map[string]int64{"count": affected})
}

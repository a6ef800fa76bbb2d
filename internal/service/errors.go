package service

import (
	"errors"
)

const (
	BadRequest          = 400
	NotFound            = 404
	InternalServerError = 500
	BadGateway          = 502
)

var (
	ErrParamInvalid      = errors.New("参数错误")
	ErrHandleEmpty       = errors.New("账号 handle 不能为空")
	ErrAccountNotTracked = errors.New("账号未被追踪")
	ErrAccountLookup     = errors.New("账号不存在或上游接口异常")
	ErrUpstream          = errors.New("上游接口异常")
	ErrStorage           = errors.New("存储异常，请稍后重试")
	ErrDeliveryFailed    = errors.New("通知推送失败，将在下次轮询重试")
	UnExpectedError      = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:      BadRequest,
	ErrHandleEmpty:       BadRequest,
	ErrAccountNotTracked: NotFound,
	ErrAccountLookup:     BadRequest,
	ErrUpstream:          BadGateway,
	ErrStorage:           InternalServerError,
	ErrDeliveryFailed:    BadGateway,
	UnExpectedError:      InternalServerError,
}

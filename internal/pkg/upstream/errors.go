package upstream

import (
	"errors"
	"fmt"
)

// Error 上游接口失败：错误载荷、非 200 响应或网络异常
type Error struct {
	Op     string
	Status int
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream %s failed: %d %s", e.Op, e.Status, e.Reason)
	}
	return fmt.Sprintf("upstream %s failed: %s", e.Op, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUpstreamError 判断是否为上游软失败
func IsUpstreamError(err error) bool {
	var ue *Error
	return errors.As(err, &ue)
}

package middleware

import (
	"FollowTracker/internal/pkg/consts"
	"FollowTracker/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

const TraceHeader = "X-Trace-ID"

// TraceMiddleware 沿用调用方传入的 trace_id，否则生成 http- 前缀的新 ID
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if traceID := c.GetHeader(TraceHeader); traceID != "" {
			ctx = logger.WithTraceID(ctx, traceID)
		} else {
			ctx = logger.WithTrace(ctx, consts.TraceHTTPPrefix)
		}
		traceID := logger.TraceID(ctx)

		c.Set(logger.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(ctx)

		c.Header(TraceHeader, traceID)
		c.Next()
	}
}

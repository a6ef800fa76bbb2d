package logger

import (
	"FollowTracker/internal/api/config"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// accessLog gin 访问日志，字段与 slog JSON 输出保持一致
type accessLog struct {
	Time        string `json:"time"`
	Level       string `json:"level"`
	Msg         string `json:"msg"`
	TraceID     string `json:"trace_id"`
	LogToken    string `json:"log_token,omitempty"`
	TargetIndex string `json:"target_index,omitempty"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Status      int    `json:"status"`
	Latency     string `json:"latency"`
	ClientIP    string `json:"client_ip"`
	Error       string `json:"error,omitempty"`
}

// SetupGin 注册访问日志与 Recovery，skipPaths 中的路由（健康检查）不记录
func SetupGin(r *gin.Engine, skipPaths ...string) {
	var token, index string
	if config.Cfg != nil {
		token = config.Cfg.Logstash.Token
		index = config.Cfg.Logstash.Index
	}

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    LogWriter,
		SkipPaths: skipPaths,
		Formatter: func(p gin.LogFormatterParams) string {
			return formatAccess(p, token, index)
		},
	}))

	r.Use(gin.Recovery())
}

func formatAccess(p gin.LogFormatterParams, token, index string) string {
	entry := accessLog{
		Time:        p.TimeStamp.Format(time.RFC3339),
		Level:       "INFO",
		Msg:         "GIN_ACCESS",
		TraceID:     accessTraceID(p),
		LogToken:    token,
		TargetIndex: index,
		Method:      p.Method,
		Path:        p.Path,
		Status:      p.StatusCode,
		Latency:     p.Latency.String(),
		ClientIP:    p.ClientIP,
		Error:       p.ErrorMessage,
	}
	if p.StatusCode >= 500 {
		entry.Level = "ERROR"
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return ""
	}
	return string(b) + "\n"
}

func accessTraceID(p gin.LogFormatterParams) string {
	if id, ok := p.Keys[TraceIDKey].(string); ok {
		return id
	}
	if p.Request != nil {
		return TraceID(p.Request.Context())
	}
	return ""
}

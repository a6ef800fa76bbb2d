package api

import (
	"FollowTracker/internal/api/middleware"
	"FollowTracker/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware("/api/ping"))
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r, "/api/ping")

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		accountGroup := apiGroup.Group("/accounts")
		{
			accountGroup.GET("", group.TrackedAccountHandler.ListAccounts)
			accountGroup.POST("", group.TrackedAccountHandler.AddAccount)
			accountGroup.DELETE("/:handle", group.TrackedAccountHandler.RemoveAccount)
			accountGroup.GET("/:handle/followings", group.TrackedAccountHandler.ListFollowings)
			accountGroup.POST("/:handle/update", group.TrackedAccountHandler.UpdateAccount)
		}

		sweepGroup := apiGroup.Group("/sweep")
		{
			sweepGroup.POST("", group.SweepHandler.TriggerSweep)
			sweepGroup.GET("/state", group.SweepHandler.GetState)
		}

		notificationGroup := apiGroup.Group("/notifications")
		{
			notificationGroup.GET("/undelivered", group.NotificationHandler.ListUndelivered)
			notificationGroup.POST("/delivered", group.NotificationHandler.MarkDelivered)
		}
	}

	return r
}

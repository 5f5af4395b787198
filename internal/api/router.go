package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salon-notification-service/internal/config"
	"salon-notification-service/internal/logging"
)

// NewRouter wires the admin surface. Everything that mutates queue state goes
// through the same services the schedulers use.
func NewRouter(logger *logging.Logger, cfg config.Config, h *Handler, hub *Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	api := r.Group(cfg.API.BasePath)
	{
		api.POST("/notifications", h.EnqueueNotification)
		api.GET("/notifications", h.GetNotifications)
		api.GET("/notifications/:id", h.GetNotificationByID)
		api.POST("/notifications/:id/approve", h.ApproveNotification)

		api.POST("/queue/process", h.ProcessQueue)
		api.POST("/reminders/run", h.RunReminders)
		api.POST("/admin/settings/refresh", h.RefreshSettings)

		api.GET("/notifications/events", hub.Serve)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

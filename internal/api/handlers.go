package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salon-notification-service/internal/db"
	"salon-notification-service/internal/logging"
	"salon-notification-service/internal/models"
	"salon-notification-service/internal/queue"
)

type notificationStore interface {
	GetNotifications(ctx context.Context, limit, offset int) ([]models.Notification, error)
	GetNotificationByID(ctx context.Context, id uuid.UUID) (models.Notification, error)
	ApproveNotification(ctx context.Context, id uuid.UUID) (bool, error)
}

type enqueuer interface {
	Enqueue(ctx context.Context, channel models.NotificationChannel, typ models.NotificationType, recipient, content, subject string, metadata map[string]any) (*models.Notification, error)
}

type jobRunner interface {
	RunSweep(ctx context.Context) queue.Result
	RunReminders(ctx context.Context)
}

type settingsRefresher interface {
	Refresh(ctx context.Context) (models.SalonSettings, error)
}

type Handler struct {
	store    notificationStore
	queue    enqueuer
	jobs     jobRunner
	settings settingsRefresher
	logger   *logging.Logger
}

func NewHandler(store notificationStore, q enqueuer, jobs jobRunner, settings settingsRefresher, logger *logging.Logger) *Handler {
	return &Handler{store: store, queue: q, jobs: jobs, settings: settings, logger: logger}
}

type enqueueRequest struct {
	Channel   models.NotificationChannel `json:"channel" binding:"required"`
	Type      models.NotificationType    `json:"type"`
	Recipient string                     `json:"recipient" binding:"required"`
	Content   string                     `json:"content" binding:"required"`
	Subject   string                     `json:"subject"`
	Metadata  map[string]any             `json:"metadata"`
}

func (h *Handler) EnqueueNotification(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid request body for notification: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Channel != models.ChannelEmail && req.Channel != models.ChannelSMS {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel"})
		return
	}
	if req.Type == "" {
		req.Type = models.TypeAnnouncement
	}

	n, err := h.queue.Enqueue(c.Request.Context(), req.Channel, req.Type, req.Recipient, req.Content, req.Subject, req.Metadata)
	if err != nil {
		h.logger.Errorf("Failed to enqueue notification: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue notification"})
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *Handler) GetNotifications(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	notifications, err := h.store.GetNotifications(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Errorf("Failed to get notifications: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get notifications"})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *Handler) GetNotificationByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification id"})
		return
	}

	n, err := h.store.GetNotificationByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		h.logger.Errorf("Failed to get notification %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get notification"})
		return
	}
	c.JSON(http.StatusOK, n)
}

// ApproveNotification is the external approval action that promotes a record
// from WAITING_APPROVAL to PENDING.
func (h *Handler) ApproveNotification(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification id"})
		return
	}

	approved, err := h.store.ApproveNotification(c.Request.Context(), id)
	if err != nil {
		h.logger.Errorf("Failed to approve notification %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve notification"})
		return
	}
	if !approved {
		c.JSON(http.StatusConflict, gin.H{"error": "Notification is not waiting for approval"})
		return
	}
	h.logger.Infof("Approved notification %s", id)
	c.JSON(http.StatusOK, gin.H{"status": string(models.StatusPending)})
}

func (h *Handler) ProcessQueue(c *gin.Context) {
	res := h.jobs.RunSweep(c.Request.Context())
	c.JSON(http.StatusOK, res)
}

func (h *Handler) RunReminders(c *gin.Context) {
	h.jobs.RunReminders(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) RefreshSettings(c *gin.Context) {
	snap, err := h.settings.Refresh(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Failed to refresh settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh settings"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

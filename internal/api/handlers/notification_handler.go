package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mpiyush15/pixels-official-sub001/internal/api/middleware"
	"github.com/mpiyush15/pixels-official-sub001/internal/services"
)

// NotificationHandler serves the admin and staff notification feeds. The actor comes from
// the session, so one handler backs both route groups.
type NotificationHandler struct {
	notificationService services.INotificationService
}

func NewNotificationHandler(notificationService services.INotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func actor(c *gin.Context) services.Actor {
	return services.Actor{ID: middleware.ActorID(c), Kind: middleware.ActorKind(c)}
}

// GetFeed handles GET /v1/{admin,staff}/notifications.
func (h *NotificationHandler) GetFeed(c *gin.Context) {
	feed, err := h.notificationService.Build(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": feed})
}

// MarkRead handles PATCH /v1/{admin,staff}/notifications with {notificationId}.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	var body struct {
		NotificationID string `json:"notificationId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "notificationId is required")
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), actor(c), body.NotificationID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MarkAllRead handles POST /v1/{admin,staff}/notifications. An optional {ids} body limits
// the update to those notifications.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	var body struct {
		IDs []string `json:"ids"`
	}
	// Chunked bodies report ContentLength -1, so only an absent or empty body means "all".
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, "Invalid request body")
			return
		}
	}
	n, err := h.notificationService.MarkManyRead(c.Request.Context(), actor(c), body.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "marked": n})
}

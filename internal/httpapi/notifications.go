package httpapi

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carewell/medtrack/internal/domain"
)

type createNotificationRequest struct {
	UserID  int64  `json:"user_id" binding:"required"`
	Title   string `json:"title" binding:"required"`
	Message string `json:"message"`
}

// createNotification is the direct event-creation path (e.g. a doctor-facing
// client notifying a patient). The event is stored first — the pull surface
// is the source of truth — and only then published to live subscribers.
func (h *Handler) createNotification(c *gin.Context) {
	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.repo.GetUser(c.Request.Context(), req.UserID); err != nil {
		h.fail(c, err)
		return
	}

	n := &domain.Notification{
		UserID:    req.UserID,
		Title:     req.Title,
		Message:   req.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.repo.CreateNotification(c.Request.Context(), n); err != nil {
		h.fail(c, err)
		return
	}
	h.hub.Publish(n.UserID, *n)

	c.JSON(http.StatusCreated, notificationJSON(n))
}

func (h *Handler) listNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread_only") == "true"
	notifs, err := h.repo.ListNotifications(c.Request.Context(), userID(c), unreadOnly, 100)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(notifs))
	for i := range notifs {
		out = append(out, notificationJSON(&notifs[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) unreadCount(c *gin.Context) {
	count, err := h.repo.UnreadCount(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func (h *Handler) markRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.repo.MarkNotificationRead(c.Request.Context(), id, userID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

func (h *Handler) markAllRead(c *gin.Context) {
	if err := h.repo.MarkAllNotificationsRead(c.Request.Context(), userID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked as read"})
}

// streamNotifications is the push surface: a server-sent-events stream fed by
// the hub. It is a latency optimization over polling; disconnecting loses
// nothing, since every event is also in the durable feed.
func (h *Handler) streamNotifications(c *gin.Context) {
	uid := userID(c)
	sub := h.hub.Subscribe(uid)
	defer h.hub.Unsubscribe(sub)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(io.Writer) bool {
		select {
		case n, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent("notification", notificationJSON(&n))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func notificationJSON(n *domain.Notification) gin.H {
	return gin.H{
		"id":         n.ID,
		"title":      n.Title,
		"message":    n.Message,
		"is_read":    n.IsRead,
		"created_at": n.CreatedAt,
	}
}

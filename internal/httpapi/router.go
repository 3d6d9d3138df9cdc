package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/carewell/medtrack/internal/domain"
	"github.com/carewell/medtrack/internal/hub"
	"github.com/carewell/medtrack/internal/reset"
	"github.com/carewell/medtrack/internal/scheduler"
	"github.com/carewell/medtrack/internal/store"
)

// Handler exposes the adherence engine over HTTP. Authentication is handled
// upstream; the authenticated user id arrives in the X-User-ID header (or the
// user_id query parameter for the event stream, where headers are awkward for
// EventSource clients).
type Handler struct {
	log    *zap.Logger
	repo   store.Repo
	engine *reset.Engine
	sched  *scheduler.Scheduler
	hub    *hub.Hub
}

// New builds the Gin engine with all routes registered.
func New(log *zap.Logger, repo store.Repo, engine *reset.Engine, sched *scheduler.Scheduler, h *hub.Hub) *gin.Engine {
	handler := &Handler{log: log, repo: repo, engine: engine, sched: sched, hub: h}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api/v1")
	api.POST("/users", handler.createUser)

	authed := api.Group("")
	authed.Use(handler.identify)
	{
		authed.GET("/dashboard", handler.dashboard)

		authed.GET("/medications", handler.listMedications)
		authed.POST("/medications", handler.prescribeMedication)
		authed.POST("/medications/reset", handler.resetMedications)
		authed.PUT("/medications/:id/taken", handler.markTaken)
		authed.PUT("/medications/:id/not-taken", handler.markNotTaken)

		authed.POST("/reminders", handler.createReminder)
		authed.GET("/reminders", handler.listReminders)
		authed.DELETE("/reminders/:id", handler.cancelReminder)

		authed.POST("/notifications", handler.createNotification)
		authed.GET("/notifications", handler.listNotifications)
		authed.GET("/notifications/unread-count", handler.unreadCount)
		authed.PUT("/notifications/:id/read", handler.markRead)
		authed.PUT("/notifications/read-all", handler.markAllRead)
		authed.GET("/notifications/stream", handler.streamNotifications)
	}

	return r
}

// identify resolves the caller's user id from X-User-ID (or user_id query).
func (h *Handler) identify(c *gin.Context) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		raw = c.Query("user_id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid user id"})
		return
	}
	c.Set("userID", id)
	c.Next()
}

func userID(c *gin.Context) int64 {
	return c.GetInt64("userID")
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// fail maps repository errors to HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.log.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Timezone string `json:"timezone"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := &domain.User{Name: req.Name, Email: req.Email, Timezone: req.Timezone}
	if err := h.repo.CreateUser(c.Request.Context(), u); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, userJSON(u))
}

func userJSON(u *domain.User) gin.H {
	return gin.H{
		"id":       u.ID,
		"name":     u.Name,
		"email":    u.Email,
		"timezone": u.Timezone,
	}
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/carewell/medtrack/internal/domain"
)

// resetOnRead runs the once-per-day reset decision for a read path. A failed
// reset must never fail the read that triggered it; it is logged and the read
// proceeds with whatever state is there.
func (h *Handler) resetOnRead(c *gin.Context) {
	uid := userID(c)
	if _, err := h.engine.ResetIfNeeded(c.Request.Context(), uid); err != nil {
		h.log.Error("reset on read failed", zap.Int64("userID", uid), zap.Error(err))
	}
}

func (h *Handler) listMedications(c *gin.Context) {
	h.resetOnRead(c)

	meds, err := h.repo.ListMedications(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(meds))
	for i := range meds {
		out = append(out, medicationJSON(&meds[i]))
	}
	c.JSON(http.StatusOK, out)
}

type prescribeRequest struct {
	Name         string `json:"name" binding:"required"`
	Dosage       string `json:"dosage"`
	Schedule     string `json:"schedule"`
	Duration     string `json:"duration" binding:"required"`
	Instructions string `json:"instructions"`
}

func (h *Handler) prescribeMedication(c *gin.Context) {
	var req prescribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := domain.ParseDuration(req.Duration); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m := &domain.Medication{
		UserID:       userID(c),
		Name:         req.Name,
		Dosage:       req.Dosage,
		Schedule:     req.Schedule,
		Duration:     req.Duration,
		Instructions: req.Instructions,
		PrescribedAt: time.Now().UTC(),
	}
	if err := h.repo.CreateMedication(c.Request.Context(), m); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, medicationJSON(m))
}

// resetMedications is the explicit reset endpoint. Same contract as the
// read-path reset: at most one logical reset per local day.
func (h *Handler) resetMedications(c *gin.Context) {
	out, err := h.engine.ResetIfNeeded(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  out.Status.String(),
		"cleared": out.Cleared,
	})
}

func (h *Handler) markTaken(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	now := time.Now().UTC()
	if err := h.repo.SetTaken(c.Request.Context(), id, userID(c), &now); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "medication marked as taken"})
}

func (h *Handler) markNotTaken(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.repo.SetTaken(c.Request.Context(), id, userID(c), nil); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "medication marked as not taken"})
}

// dashboard is the other read path that triggers the daily reset. The
// adherence level grows from 0 to 10 as today's medications are taken.
func (h *Handler) dashboard(c *gin.Context) {
	h.resetOnRead(c)

	meds, err := h.repo.ListMedications(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	taken := 0
	for _, m := range meds {
		if m.IsTaken {
			taken++
		}
	}
	level := 0
	if len(meds) > 0 {
		level = taken * 10 / len(meds)
	}
	unread, err := h.repo.UnreadCount(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"medications_total": len(meds),
		"medications_taken": taken,
		"adherence_level":   level,
		"unread_count":      unread,
	})
}

func medicationJSON(m *domain.Medication) gin.H {
	out := gin.H{
		"id":            m.ID,
		"name":          m.Name,
		"dosage":        m.Dosage,
		"schedule":      m.Schedule,
		"duration":      m.Duration,
		"instructions":  m.Instructions,
		"is_taken":      m.IsTaken,
		"prescribed_at": m.PrescribedAt,
	}
	if m.TakenAt != nil {
		out["taken_at"] = *m.TakenAt
	}
	return out
}

package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carewell/medtrack/internal/domain"
)

type createReminderRequest struct {
	Title        string `json:"title" binding:"required"`
	Message      string `json:"message"`
	TimeOfDay    string `json:"time_of_day" binding:"required"`
	Meridiem     string `json:"meridiem" binding:"required"`
	Frequency    string `json:"frequency" binding:"required"`
	MedicationID *int64 `json:"medication_id"`
}

func (h *Handler) createReminder(c *gin.Context) {
	var req createReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meridiem, err := domain.ParseMeridiem(req.Meridiem)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	frequency, err := domain.ParseFrequency(req.Frequency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r := &domain.Reminder{
		UserID:       userID(c),
		Title:        req.Title,
		Message:      req.Message,
		TimeOfDay:    req.TimeOfDay,
		Meridiem:     meridiem,
		Frequency:    frequency,
		MedicationID: req.MedicationID,
	}
	if err := h.sched.Create(c.Request.Context(), r); err != nil {
		if errors.Is(err, domain.ErrInvalidTimeOfDay) ||
			errors.Is(err, domain.ErrInvalidMeridiem) ||
			errors.Is(err, domain.ErrInvalidFrequency) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, reminderJSON(r))
}

func (h *Handler) listReminders(c *gin.Context) {
	reminders, err := h.repo.ListUserReminders(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(reminders))
	for i := range reminders {
		out = append(out, reminderJSON(&reminders[i]))
	}
	c.JSON(http.StatusOK, out)
}

// cancelReminder disarms and soft-deletes the caller's reminder. Cancelling a
// reminder that is already cancelled succeeds: the end state is the same.
func (h *Handler) cancelReminder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	r, err := h.repo.GetReminder(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if r.UserID != userID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your reminder"})
		return
	}
	if err := h.sched.Cancel(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reminder cancelled"})
}

func reminderJSON(r *domain.Reminder) gin.H {
	out := gin.H{
		"id":          r.ID,
		"title":       r.Title,
		"message":     r.Message,
		"time_of_day": r.TimeOfDay,
		"meridiem":    r.Meridiem,
		"frequency":   r.Frequency,
		"is_active":   r.IsActive,
	}
	if r.NextRunAt != nil {
		out["next_run_at"] = *r.NextRunAt
	}
	if r.MedicationID != nil {
		out["medication_id"] = *r.MedicationID
	}
	return out
}

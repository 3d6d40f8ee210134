package handlers

import (
	"net/http"
	"time"

	"github.com/keyoor1989/united-crm-sub004/internal/db"
	"github.com/keyoor1989/united-crm-sub004/internal/models"
	"github.com/keyoor1989/united-crm-sub004/internal/services"
	"github.com/keyoor1989/united-crm-sub004/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FollowUpHandler creates follow-ups and triggers the daily reminder job.
type FollowUpHandler struct {
	followUpRepo    db.FollowUpRepository
	reminderService *services.ReminderService
}

// NewFollowUpHandler creates a new follow-up handler
func NewFollowUpHandler(followUpRepo db.FollowUpRepository, reminderService *services.ReminderService) *FollowUpHandler {
	return &FollowUpHandler{
		followUpRepo:    followUpRepo,
		reminderService: reminderService,
	}
}

// Create schedules a follow-up (POST /api/followups)
func (h *FollowUpHandler) Create(c *gin.Context) {
	logger.Info("Follow-up creation endpoint called")

	var req models.CreateFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Customer name and date are required"})
		return
	}

	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD"})
		return
	}

	followUp := req.ToFollowUp()
	if err := h.followUpRepo.Create(followUp); err != nil {
		logger.Error("Follow-up creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, followUp)
}

// RunReminders invokes the daily reminder job
// (POST /api/jobs/followup-reminders, ?force=true to skip the hour gate)
func (h *FollowUpHandler) RunReminders(c *gin.Context) {
	logger.Info("Reminder job endpoint called")

	force := c.Query("force") == "true"

	result, err := h.reminderService.Run(c.Request.Context(), time.Now(), force)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
